package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"

	"taskpilot/internal/task"
)

var (
	doneColor     = color.New(color.FgGreen)
	progressColor = color.New(color.FgCyan)
	urgentColor   = color.New(color.FgRed, color.Bold)
	highColor     = color.New(color.FgYellow)
	dimColor      = color.New(color.Faint)
)

func statusLabel(s task.Status) string {
	switch s {
	case task.StatusDone:
		return doneColor.Sprint(s)
	case task.StatusInProgress:
		return progressColor.Sprint(s)
	case task.StatusCancelled:
		return dimColor.Sprint(s)
	default:
		return string(s)
	}
}

func priorityLabel(p task.Priority) string {
	switch p {
	case task.PriorityUrgent:
		return urgentColor.Sprint(p)
	case task.PriorityHigh:
		return highColor.Sprint(p)
	case task.PriorityLow:
		return dimColor.Sprint(p)
	default:
		return string(p)
	}
}

func printTask(t *task.Task) {
	fmt.Printf("#%-4d %-12s %-8s %s\n", t.ID, statusLabel(t.Status), priorityLabel(t.Priority), t.Title)
	if t.Description != "" {
		fmt.Printf("      %s\n", dimColor.Sprint(t.Description))
	}
	if t.DueDate != nil {
		due := t.DueDate.Local().Format("2006-01-02 15:04")
		if t.DueDate.Before(time.Now()) && t.Status != task.StatusDone {
			fmt.Printf("      due %s %s\n", due, urgentColor.Sprint("(overdue)"))
		} else {
			fmt.Printf("      due %s\n", due)
		}
	}
}

func runList(c *client) error {
	tasks, err := c.ListTasks(*listStatus, *listPriority, *listSearch, *listLimit)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Println("No tasks found.")
		return nil
	}
	for _, t := range tasks {
		printTask(t)
	}
	return nil
}

func runCreate(c *client) error {
	req := &task.CreateTaskRequest{
		Title:       *createTitle,
		Description: *createDescription,
		Priority:    *createPriority,
	}
	if *createDue != "" {
		due, err := time.Parse(time.RFC3339, *createDue)
		if err != nil {
			return fmt.Errorf("invalid due date %q: %w", *createDue, err)
		}
		req.DueDate = &due
	}

	created, err := c.CreateTask(req)
	if err != nil {
		return err
	}
	fmt.Printf("Created task #%d\n", created.ID)
	printTask(created)
	return nil
}

func runShow(c *client) error {
	t, err := c.GetTask(*showID)
	if err != nil {
		return err
	}
	printTask(t)
	fmt.Printf("      created %s, updated %s\n",
		t.CreatedAt.Local().Format(time.RFC3339),
		t.UpdatedAt.Local().Format(time.RFC3339))
	return nil
}

func runUpdate(c *client) error {
	req := &task.UpdateTaskRequest{}
	if *updateTitle != "" {
		req.Title = updateTitle
	}
	if *updateDescription != "" {
		req.Description = updateDescription
	}
	if *updateStatus != "" {
		req.Status = updateStatus
	}
	if *updatePriority != "" {
		req.Priority = updatePriority
	}

	t, err := c.UpdateTask(*updateID, req)
	if err != nil {
		return err
	}
	fmt.Printf("Updated task #%d\n", t.ID)
	printTask(t)
	return nil
}

func runDelete(c *client) error {
	msg, err := c.DeleteTask(*deleteID)
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}

func runStats(c *client) error {
	stats, err := c.Stats()
	if err != nil {
		return err
	}

	fmt.Printf("Total tasks:   %d\n", stats.TotalTasks)
	fmt.Println("By status:")
	for _, s := range []task.Status{task.StatusPending, task.StatusInProgress, task.StatusDone, task.StatusCancelled} {
		if n := stats.ByStatus[string(s)]; n > 0 {
			fmt.Printf("  %-12s %d\n", statusLabel(s), n)
		}
	}
	fmt.Println("By priority:")
	for _, p := range []task.Priority{task.PriorityUrgent, task.PriorityHigh, task.PriorityMedium, task.PriorityLow} {
		if n := stats.ByPriority[string(p)]; n > 0 {
			fmt.Printf("  %-12s %d\n", priorityLabel(p), n)
		}
	}
	if stats.OverdueTasks > 0 {
		fmt.Printf("Overdue:       %s\n", urgentColor.Sprintf("%d", stats.OverdueTasks))
	}
	return nil
}

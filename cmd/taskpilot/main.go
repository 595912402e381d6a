package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"
)

var (
	app       = kingpin.New("taskpilot", "Conversational task management client")
	serverURL = app.Flag("server", "Server base URL").Default("http://localhost:8000").Envar("TASKPILOT_SERVER").String()

	listCmd      = app.Command("list", "List tasks")
	listStatus   = listCmd.Flag("status", "Filter by status").String()
	listPriority = listCmd.Flag("priority", "Filter by priority").String()
	listSearch   = listCmd.Flag("search", "Search in title and description").String()
	listLimit    = listCmd.Flag("limit", "Maximum number of tasks").Default("20").Int()

	createCmd         = app.Command("create", "Create a new task")
	createTitle       = createCmd.Arg("title", "Task title").Required().String()
	createDescription = createCmd.Flag("description", "Task description").String()
	createPriority    = createCmd.Flag("priority", "Task priority").Default("medium").String()
	createDue         = createCmd.Flag("due", "Due date (RFC3339)").String()

	showCmd = app.Command("show", "Show task details")
	showID  = showCmd.Arg("id", "Task ID").Required().Int64()

	updateCmd         = app.Command("update", "Update a task")
	updateID          = updateCmd.Arg("id", "Task ID").Required().Int64()
	updateTitle       = updateCmd.Flag("title", "New title").String()
	updateDescription = updateCmd.Flag("description", "New description").String()
	updateStatus      = updateCmd.Flag("status", "New status").String()
	updatePriority    = updateCmd.Flag("priority", "New priority").String()

	deleteCmd = app.Command("delete", "Delete a task")
	deleteID  = deleteCmd.Arg("id", "Task ID").Required().Int64()

	statsCmd = app.Command("stats", "Show task statistics")

	chatCmd = app.Command("chat", "Chat with the task assistant")
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))
	client := newClient(*serverURL)

	var err error
	switch command {
	case listCmd.FullCommand():
		err = runList(client)
	case createCmd.FullCommand():
		err = runCreate(client)
	case showCmd.FullCommand():
		err = runShow(client)
	case updateCmd.FullCommand():
		err = runUpdate(client)
	case deleteCmd.FullCommand():
		err = runDelete(client)
	case statsCmd.FullCommand():
		err = runStats(client)
	case chatCmd.FullCommand():
		err = runChat(client)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

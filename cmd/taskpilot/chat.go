package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gorilla/websocket"
)

type wsEnvelope struct {
	Type      string         `json:"type"`
	Data      map[string]any `json:"data"`
	Timestamp time.Time      `json:"timestamp"`
}

var (
	assistantColor = color.New(color.FgGreen, color.Bold)
	noticeColor    = color.New(color.Faint)
)

// runChat opens the duplex channel and relays stdin lines as chat messages.
// The session ends on EOF or "exit".
func runChat(c *client) error {
	wsURL := strings.Replace(c.baseURL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", wsURL, err)
	}
	defer conn.Close()

	fmt.Println("Connected. Type a message, or 'exit' to quit.")

	incoming := make(chan *wsEnvelope)
	readErr := make(chan error, 1)
	go func() {
		for {
			var env wsEnvelope
			if err := conn.ReadJSON(&env); err != nil {
				readErr <- err
				close(incoming)
				return
			}
			incoming <- &env
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}

		err := conn.WriteJSON(map[string]any{
			"type": "chat_message",
			"data": map[string]string{"message": line},
		})
		if err != nil {
			return fmt.Errorf("connection lost: %w", err)
		}

		if err := waitForReply(incoming, readErr); err != nil {
			return err
		}
	}
}

// waitForReply consumes envelopes until the agent answers the current turn.
func waitForReply(incoming <-chan *wsEnvelope, readErr <-chan error) error {
	for {
		select {
		case env, ok := <-incoming:
			if !ok {
				return <-readErr
			}
			switch env.Type {
			case "typing_indicator":
				noticeColor.Println("assistant is thinking...")
			case "agent_response":
				if reply, ok := env.Data["agent_response"].(string); ok {
					assistantColor.Print("assistant: ")
					fmt.Println(reply)
				}
				return nil
			case "task_list_update":
				noticeColor.Println("(task list updated by another session)")
			case "error":
				if msg, ok := env.Data["message"].(string); ok {
					return fmt.Errorf("server error: %s", msg)
				}
				return fmt.Errorf("server error")
			}
		case <-time.After(5 * time.Minute):
			return fmt.Errorf("timed out waiting for a reply")
		}
	}
}

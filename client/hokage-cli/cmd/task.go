package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var watchTask bool

var taskCmd = &cobra.Command{
	Use:   "task [task-id]",
	Short: "Show a diagnosis task, optionally polling until it settles",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		showTask(args[0])
	},
}

func init() {
	taskCmd.Flags().BoolVar(&watchTask, "watch", false, "keep polling until the task reaches a terminal state")
	rootCmd.AddCommand(taskCmd)
}

func showTask(taskID string) {
	for {
		task := fetchTask(taskID)

		pretty, err := json.MarshalIndent(task, "", "  ")
		if err != nil {
			log.Fatalf("Error formatting response: %v", err)
		}
		fmt.Println(string(pretty))

		status, _ := task["status"].(string)
		if !watchTask || status == "finalized" || status == "failed" {
			return
		}
		// Each poll advances the pipeline one stage at most, so a short
		// interval is enough.
		fmt.Printf("-- status %q, polling again in 5s --\n", status)
		time.Sleep(5 * time.Second)
	}
}

func fetchTask(taskID string) map[string]interface{} {
	req, err := http.NewRequest(http.MethodGet, serverURL+"/api/v1/tasks/"+taskID, nil)
	if err != nil {
		log.Fatalf("Error creating request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+authToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("Error fetching task: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Failed to fetch task, status code: %d", resp.StatusCode)
	}

	var task map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		log.Fatalf("Error decoding response: %v", err)
	}
	return task
}

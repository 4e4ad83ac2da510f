package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose [job-id]",
	Short: "Start an automated diagnosis for a failed backup job",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		jobID, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			log.Fatalf("Invalid job id %q: %v", args[0], err)
		}
		diagnose(uint(jobID))
	},
}

func init() {
	rootCmd.AddCommand(diagnoseCmd)
}

func diagnose(jobID uint) {
	payload := map[string]uint{"job_id": jobID}
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		log.Fatalf("Error creating JSON payload: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, serverURL+"/api/v1/tasks/diagnose", bytes.NewBuffer(jsonPayload))
	if err != nil {
		log.Fatalf("Error creating request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+authToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("Error requesting diagnosis: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		log.Fatalf("Failed to start diagnosis, status code: %d", resp.StatusCode)
	}

	var result map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.Fatalf("Error decoding response: %v", err)
	}

	fmt.Printf("Diagnosis started!\nTask ID: %s\n", result["task_id"])
	fmt.Printf("To follow it, run: hokage-cli task %s --watch\n", result["task_id"])
}

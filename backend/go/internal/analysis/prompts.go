package analysis

import (
	"fmt"
	"strings"
)

const defaultSystemPrompt = `You are an expert Commvault Backup Administrator and Virtualization Specialist.
Your role is to analyze technical data from a backup environment and provide clear,
concise, and actionable insights for an IT administrator. Respond in the requested format.`

const jsonOnlySystemPrompt = `You are a helpful assistant that only responds in valid JSON.`

// triagePrompt builds the first-pass prompt. The model must answer with a
// single JSON object matching TriageVerdict.
func triagePrompt(failureSummary string, recentEvents []string) string {
	formattedEvents := strings.Join(recentEvents, "; ")
	return fmt.Sprintf(`You are a Commvault Triage Expert. Analyze the following data from a failed backup job.
Your task is to decide if you have enough information for a root cause analysis or if more logs are needed.

DATA:
- Failure Summary: %q
- Final Job Events: %q

CRITICAL INSTRUCTION: You must respond ONLY with a valid JSON object. Do not include any introductory text, explanations, or code formatting. Your entire response must be a single JSON object.

First, decide if the data is sufficient. If the summary or events are specific (e.g., "insufficient free space", "network timeout", "credentials failed"), the information IS sufficient. If both are generic (e.g., "backup failed"), you NEED more logs.

Then, construct your JSON response based on one of the two following examples.

EXAMPLE 1: If information IS sufficient:
{
  "is_sufficient": true,
  "logs_needed": [],
  "analysis": {
    "problem_summary": "The backup failed due to insufficient disk space on the MediaAgent.",
    "probable_cause": "The DDB snapshot could not be created because the volume group 'vgnrm1' did not have enough free extents.",
    "recommended_action": "The storage administrator needs to extend the 'vgnrm1' volume group on the MediaAgent to free up space for DDB snapshots."
  }
}

EXAMPLE 2: If information is NOT sufficient:
{
  "is_sufficient": false,
  "logs_needed": ["JobManager.log"],
  "analysis": null
}`, failureSummary, formattedEvents)
}

// deepAnalysisPrompt builds the second-pass prompt from the parent task's
// original evidence and the log snippets gathered by the child task.
func deepAnalysisPrompt(initialEvidence map[string]interface{}, logContents map[string]string) string {
	failureSummary := "N/A"
	if v, ok := initialEvidence["failure_summary"].(string); ok {
		failureSummary = v
	}
	events := initialEvidence["events"]

	var logs strings.Builder
	for name, content := range logContents {
		fmt.Fprintf(&logs, "%s:\n%s\n", name, content)
	}

	return fmt.Sprintf(`You are a Commvault Root Cause Analysis Expert. You have the following comprehensive information for a failed backup job.

Initial Triage Data:
- Failure Summary: %v
- Final Job Events: %v

Detailed Log Snippets from requested files:
---
%s---

Based on ALL of this combined information, provide the final, definitive analysis.
Respond ONLY in JSON format with three keys: "problem_summary", "probable_cause", and "recommended_action".`, failureSummary, events, logs.String())
}

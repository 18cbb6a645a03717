package analyzer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// postgresExplainRoot is one element of PostgreSQL EXPLAIN (FORMAT JSON) output.
type postgresExplainRoot struct {
	Plan          postgresPlanNode `json:"Plan"`
	PlanningTime  float64          `json:"Planning Time"`  // milliseconds
	ExecutionTime float64          `json:"Execution Time"` // milliseconds, analyze only
}

// postgresPlanNode is a node of the plan tree.
type postgresPlanNode struct {
	NodeType         string             `json:"Node Type"` // "Seq Scan", "Index Scan", etc.
	RelationName     string             `json:"Relation Name"`
	IndexName        string             `json:"Index Name"`
	TotalCost        float64            `json:"Total Cost"`
	PlanRows         int64              `json:"Plan Rows"`
	ActualRows       int64              `json:"Actual Rows"`
	ActualLoops      int64              `json:"Actual Loops"`
	SharedHitBlocks  int64              `json:"Shared Hit Blocks"`
	SharedReadBlocks int64              `json:"Shared Read Blocks"`
	Plans            []postgresPlanNode `json:"Plans"`
}

func parsePostgresExplain(rawJSON string, analyze bool) (*QueryPlan, error) {
	// PostgreSQL returns an array with a single element.
	var roots []postgresExplainRoot
	if err := json.Unmarshal([]byte(rawJSON), &roots); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	if len(roots) == 0 {
		return nil, errors.New("empty EXPLAIN output")
	}

	root := roots[0]
	plan := &QueryPlan{
		Cost:          root.Plan.TotalCost,
		EstimatedRows: root.Plan.PlanRows,
	}
	walkPostgresPlan(&root.Plan, plan, analyze)

	if analyze && root.ExecutionTime > 0 {
		plan.ActualTime = time.Duration(root.ExecutionTime * float64(time.Millisecond))
	}
	return plan, nil
}

func walkPostgresPlan(node *postgresPlanNode, plan *QueryPlan, analyze bool) {
	switch {
	case strings.Contains(node.NodeType, "Index"):
		plan.UsesIndex = true
		if plan.IndexName == "" {
			plan.IndexName = node.IndexName
		}
	case node.NodeType == "Seq Scan":
		plan.FullScan = true
	}

	if analyze {
		// Only scan nodes contribute rows; joins would count them twice.
		if node.RelationName != "" {
			plan.ActualRows += node.ActualRows * max(node.ActualLoops, 1)
		}
		plan.BuffersHit += node.SharedHitBlocks
		plan.BuffersMiss += node.SharedReadBlocks
	}

	for i := range node.Plans {
		walkPostgresPlan(&node.Plans[i], plan, analyze)
	}
}

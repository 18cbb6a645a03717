package analyzer

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// mysqlExplainRoot is the root of MySQL EXPLAIN FORMAT=JSON output.
type mysqlExplainRoot struct {
	QueryBlock mysqlQueryBlock `json:"query_block"`
}

// mysqlQueryBlock holds a single table access or the operations wrapping one.
type mysqlQueryBlock struct {
	CostInfo   mysqlCostInfo     `json:"cost_info"`
	Table      *mysqlTableAccess `json:"table"`
	NestedLoop []mysqlNested     `json:"nested_loop"`
	Grouping   *mysqlQueryBlock  `json:"grouping_operation"`
	Ordering   *mysqlQueryBlock  `json:"ordering_operation"`
	Duplicates *mysqlQueryBlock  `json:"duplicates_removal"`
}

type mysqlNested struct {
	Table *mysqlTableAccess `json:"table"`
}

type mysqlTableAccess struct {
	TableName           string `json:"table_name"`
	AccessType          string `json:"access_type"` // "ALL", "index", "range", "ref", "eq_ref", "const"
	Key                 string `json:"key"`
	RowsExaminedPerScan int64  `json:"rows_examined_per_scan"`
	RowsProducedPerJoin int64  `json:"rows_produced_per_join"`
}

type mysqlCostInfo struct {
	QueryCost string `json:"query_cost"`
}

func parseMySQLExplain(rawJSON string) (*QueryPlan, error) {
	var root mysqlExplainRoot
	if err := json.Unmarshal([]byte(rawJSON), &root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	plan := &QueryPlan{}
	if cost, err := strconv.ParseFloat(root.QueryBlock.CostInfo.QueryCost, 64); err == nil {
		plan.Cost = cost
	}
	walkMySQLBlock(&root.QueryBlock, plan)
	return plan, nil
}

func walkMySQLBlock(block *mysqlQueryBlock, plan *QueryPlan) {
	if block == nil {
		return
	}
	addMySQLTable(block.Table, plan)
	for _, n := range block.NestedLoop {
		addMySQLTable(n.Table, plan)
	}
	walkMySQLBlock(block.Grouping, plan)
	walkMySQLBlock(block.Ordering, plan)
	walkMySQLBlock(block.Duplicates, plan)
}

func addMySQLTable(table *mysqlTableAccess, plan *QueryPlan) {
	if table == nil {
		return
	}
	if table.Key != "" {
		plan.UsesIndex = true
		if plan.IndexName == "" {
			plan.IndexName = table.Key
		}
	}
	if table.AccessType == "ALL" {
		plan.FullScan = true
	}
	plan.EstimatedRows += table.RowsExaminedPerScan
	plan.RowsExamined += table.RowsExaminedPerScan
	plan.RowsProduced += table.RowsProducedPerJoin
}

var (
	// "-> Index lookup on users using email_idx (email='a')"
	mysqlIndexRe = regexp.MustCompile(`(?i)index (?:lookup|scan|range scan) on \S+ using (\w+)`)
	// "(actual time=0.031..0.035 rows=3 loops=1)"
	mysqlActualRe = regexp.MustCompile(`actual time=[\d.]+\.\.([\d.]+) rows=(\d+)`)
)

// parseMySQLAnalyze reads the text tree of EXPLAIN ANALYZE. The first node
// is the root, so its actual time and rows describe the whole query.
func parseMySQLAnalyze(tree string) *QueryPlan {
	plan := &QueryPlan{}
	if m := mysqlIndexRe.FindStringSubmatch(tree); m != nil {
		plan.UsesIndex = true
		plan.IndexName = m[1]
	}
	plan.FullScan = strings.Contains(strings.ToLower(tree), "table scan on")

	if m := mysqlActualRe.FindStringSubmatch(tree); m != nil {
		if ms, err := strconv.ParseFloat(m[1], 64); err == nil {
			plan.ActualTime = time.Duration(ms * float64(time.Millisecond))
		}
		plan.ActualRows, _ = strconv.ParseInt(m[2], 10, 64)
	}
	return plan
}

package models

// DashboardSummary holds the caller's totals across every project they own.
type DashboardSummary struct {
	TotalProjects int `json:"totalProjects"`
	TotalTasks    int `json:"totalTasks"`
}

// internal/workers/import/validate-import-batch/models.go
package validateimportbatch

import "subtrack-workers/internal/importer"

type Input struct {
	UserID       string                `json:"userId"`
	Rows         [][]interface{}       `json:"rows"`
	FieldMapping importer.FieldMapping `json:"fieldMapping"`
	Policy       string                `json:"policy,omitempty"`
}

type Output struct {
	ValidRecords []importer.Record          `json:"validRecords"`
	Errors       []importer.ValidationError `json:"errors"`
	ValidCount   int                        `json:"validCount"`
	ErrorCount   int                        `json:"errorCount"`
	RejectedRows int                        `json:"rejectedRows"`
	TotalRows    int                        `json:"totalRows"`
	Policy       string                     `json:"policy"`
}

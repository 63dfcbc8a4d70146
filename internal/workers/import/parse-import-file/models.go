// internal/workers/import/parse-import-file/models.go
package parseimportfile

import "subtrack-workers/internal/importer"

type Input struct {
	UserID       string                `json:"userId"`
	Bucket       string                `json:"bucket,omitempty"`
	Key          string                `json:"key"`
	FileName     string                `json:"fileName,omitempty"`
	FieldMapping importer.FieldMapping `json:"fieldMapping,omitempty"`
}

type Output struct {
	Headers         []string              `json:"headers"`
	Rows            []importer.Row        `json:"rows"`
	TotalRows       int                   `json:"totalRows"`
	FieldMapping    importer.FieldMapping `json:"fieldMapping"`
	MissingRequired []string              `json:"missingRequired"`
	AutoMapped      bool                  `json:"autoMapped"`
}

package pipeline

// Column is one stage bucket of a projected board.
type Column struct {
	Stage   StageDefinition `json:"stage"`
	Records []Record        `json:"records"`
}

// Projection is a board laid out as columns in registry order.
type Projection struct {
	Board   Board    `json:"board"`
	Columns []Column `json:"columns"`
}

// Project partitions records into one column per registered stage. Every
// stage is present even when empty, every record lands in exactly one
// column, and records keep their incoming order within a column.
func Project(records []Record, reg *Registry) Projection {
	columns := make([]Column, len(reg.stages))
	for i, st := range reg.stages {
		columns[i] = Column{Stage: st, Records: []Record{}}
	}
	for _, rec := range records {
		idx := reg.index[reg.Classify(rec.Status)]
		columns[idx].Records = append(columns[idx].Records, rec.Clone())
	}
	return Projection{Board: reg.board, Columns: columns}
}

// Bucket returns the records of one stage, or nil for unknown stages.
func (p Projection) Bucket(id StageID) []Record {
	for _, col := range p.Columns {
		if col.Stage.ID == id {
			return col.Records
		}
	}
	return nil
}

// Flatten concatenates every column in registry order.
func (p Projection) Flatten() []Record {
	total := 0
	for _, col := range p.Columns {
		total += len(col.Records)
	}
	out := make([]Record, 0, total)
	for _, col := range p.Columns {
		out = append(out, col.Records...)
	}
	return out
}

// Counts returns the number of records per stage.
func (p Projection) Counts() map[StageID]int {
	counts := make(map[StageID]int, len(p.Columns))
	for _, col := range p.Columns {
		counts[col.Stage.ID] = len(col.Records)
	}
	return counts
}

// StageOf returns the stage holding record id.
func (p Projection) StageOf(id string) (StageID, bool) {
	for _, col := range p.Columns {
		for _, rec := range col.Records {
			if rec.ID == id {
				return col.Stage.ID, true
			}
		}
	}
	return "", false
}

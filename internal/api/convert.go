package api

import (
	"time"

	"agencyboard/internal/documents"
	"agencyboard/internal/pipeline"
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

// FromRecord converts a pipeline record, stamping its classified stage.
func FromRecord(rec pipeline.Record, reg *pipeline.Registry) Record {
	dto := Record{
		ID:            rec.ID,
		Board:         string(rec.Board),
		Status:        rec.Status,
		Title:         rec.Title,
		ClientName:    rec.ClientName,
		PaymentMethod: rec.PaymentMethod,
		PaymentLink:   rec.LinkValue(),
		Handler:       rec.HandlerValue(),
		AmountCents:   rec.AmountCents,
		Notes:         rec.Notes,
		CreatedAt:     formatTime(rec.CreatedAt),
		UpdatedAt:     formatTime(rec.UpdatedAt),
	}
	if reg != nil {
		dto.Stage = string(reg.Classify(rec.Status))
	}
	return dto
}

// FromRecords converts a slice of records.
func FromRecords(records []pipeline.Record, reg *pipeline.Registry) []Record {
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		out = append(out, FromRecord(rec, reg))
	}
	return out
}

// FromStage converts a stage definition.
func FromStage(def pipeline.StageDefinition) Stage {
	return Stage{ID: string(def.ID), Label: def.Label, Decoration: def.Decoration}
}

// FromProjection converts a projected board.
func FromProjection(p pipeline.Projection, reg *pipeline.Registry) BoardResponse {
	resp := BoardResponse{Board: string(p.Board), Columns: make([]Column, 0, len(p.Columns))}
	for _, col := range p.Columns {
		resp.Columns = append(resp.Columns, Column{
			Stage:   FromStage(col.Stage),
			Count:   len(col.Records),
			Records: FromRecords(col.Records, reg),
		})
		resp.Total += len(col.Records)
	}
	return resp
}

// FromMoves converts offered moves.
func FromMoves(moves []pipeline.Move) []Move {
	out := make([]Move, 0, len(moves))
	for _, m := range moves {
		out = append(out, Move{To: string(m.To), Label: m.Label, Kind: string(m.Kind), Requires: m.Requires})
	}
	return out
}

// ToRequest converts a move body into a transition request for recordID.
// Stage names are resolved through reg, so "link_gerado" and "Link Gerado"
// both mean LINK_GERADO.
func (m MoveRequest) ToRequest(recordID string, reg *pipeline.Registry) pipeline.Request {
	req := pipeline.Request{
		RecordID: recordID,
		From:     reg.Resolve(m.From),
		To:       reg.Resolve(m.To),
		Override: m.Override,
		Payload:  pipeline.Payload{PaymentLink: m.PaymentLink},
	}
	for _, l := range m.Locators {
		req.Payload.Locators = append(req.Payload.Locators, pipeline.Locator{Passenger: l.Passenger, Code: l.Code, TicketNumber: l.TicketNumber})
	}
	for _, c := range m.Costs {
		req.Payload.Costs = append(req.Payload.Costs, pipeline.CostLine{Description: c.Description, AmountCents: c.AmountCents, Supplier: c.Supplier})
	}
	return req
}

// ToRecord converts a create body.
func (c CreateRecordRequest) ToRecord(board pipeline.Board) pipeline.Record {
	return pipeline.Record{
		Board:         board,
		Status:        c.Status,
		Title:         c.Title,
		ClientName:    c.ClientName,
		PaymentMethod: c.PaymentMethod,
		AmountCents:   c.AmountCents,
		Notes:         c.Notes,
	}
}

// FromDocument converts a stored file entry.
func FromDocument(e documents.Entry) Document {
	return Document{
		Folder:  e.Folder,
		Name:    e.Name,
		Size:    e.Size,
		ModTime: formatTime(e.ModTime),
		SHA256:  e.SHA256,
	}
}

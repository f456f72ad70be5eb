package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownBoard is returned when a board name has no registry.
var ErrUnknownBoard = errors.New("unknown board")

// Board names a pipeline.
type Board string

const (
	BoardCommercial Board = "comercial"
	BoardOperations Board = "operacoes"
	BoardQuotations Board = "cotacoes"
)

var allBoards = []Board{BoardCommercial, BoardOperations, BoardQuotations}

var boardAliases = map[string]Board{
	"COMERCIAL":  BoardCommercial,
	"COMMERCIAL": BoardCommercial,
	"FUNIL":      BoardCommercial,
	"OPERACOES":  BoardOperations,
	"OPERATIONS": BoardOperations,
	"EMISSAO":    BoardOperations,
	"COTACOES":   BoardQuotations,
	"QUOTATIONS": BoardQuotations,
}

// Boards returns every known board in display order.
func Boards() []Board {
	cp := make([]Board, len(allBoards))
	copy(cp, allBoards)
	return cp
}

// ParseBoard converts a user-supplied board name into a Board.
func ParseBoard(value string) (Board, bool) {
	board, ok := boardAliases[compactKey(Normalize(value))]
	return board, ok
}

// StageID is the canonical identifier of a stage.
type StageID string

// Commercial funnel stages.
const (
	StageLead             StageID = "LEAD"
	StageInitialContact   StageID = "CONTATO_INICIAL"
	StageMeetingScheduled StageID = "REUNIAO_AGENDADA"
	StageSendContract     StageID = "ENVIAR_CONTRATO"
	StageContractSigned   StageID = "CONTRATO_ASSINADO"
	StageRegistrations    StageID = "CADASTROS"
	StageCompleted        StageID = "CONCLUIDO"
	StageLost             StageID = "PERDIDO"
)

// Operations (emission) funnel stages.
const (
	StageOPGenerated      StageID = "OP_GERADA"
	StageLinkGenerated    StageID = "LINK_GERADO"
	StagePaymentConfirmed StageID = "PAGAMENTO_CONFIRMADO"
	StageInEmission       StageID = "EM_EMISSAO"
	StageEmittedByUser    StageID = "EMITIDO"
	StageEmittedByCompany StageID = "EMITIDO7C"
	StageCancelled        StageID = "CANCELADO"
)

// Quotation board stages.
const (
	StageQuoteNew      StageID = "NOVA"
	StageQuoteAnalysis StageID = "EM_ANALISE"
	StageQuoteSent     StageID = "ENVIADA"
	StageQuoteApproved StageID = "APROVADO"
	StageQuoteDeclined StageID = "RECUSADA"
)

// StageDefinition describes one column of a board.
type StageDefinition struct {
	ID         StageID `json:"id"`
	Label      string  `json:"label"`
	Decoration string  `json:"decoration,omitempty"`
}

// Registry is the immutable, ordered stage list of one board.
type Registry struct {
	board        Board
	stages       []StageDefinition
	index        map[StageID]int
	defaultStage StageID
	synonyms     map[string]StageID
	compact      map[string]StageID
	rules        *ruleSet
}

type stageSpec struct {
	def      StageDefinition
	synonyms []string
}

func newRegistry(board Board, defaultStage StageID, rules *ruleSet, specs []stageSpec) *Registry {
	reg := &Registry{
		board:        board,
		stages:       make([]StageDefinition, 0, len(specs)),
		index:        make(map[StageID]int, len(specs)),
		defaultStage: defaultStage,
		synonyms:     make(map[string]StageID),
		compact:      make(map[string]StageID),
		rules:        rules,
	}
	for i, spec := range specs {
		if _, dup := reg.index[spec.def.ID]; dup {
			panic(fmt.Sprintf("pipeline: duplicate stage %s on board %s", spec.def.ID, board))
		}
		reg.stages = append(reg.stages, spec.def)
		reg.index[spec.def.ID] = i
		keys := append([]string{string(spec.def.ID), spec.def.Label}, spec.synonyms...)
		for _, key := range keys {
			reg.addSynonym(key, spec.def.ID)
		}
	}
	if _, ok := reg.index[defaultStage]; !ok {
		panic(fmt.Sprintf("pipeline: default stage %s not registered on board %s", defaultStage, board))
	}
	return reg
}

func (r *Registry) addSynonym(raw string, id StageID) {
	key := Normalize(raw)
	if key == "" {
		return
	}
	if existing, ok := r.synonyms[key]; ok && existing != id {
		panic(fmt.Sprintf("pipeline: synonym %q maps to both %s and %s", raw, existing, id))
	}
	r.synonyms[key] = id
	ck := compactKey(key)
	if existing, ok := r.compact[ck]; ok && existing != id {
		panic(fmt.Sprintf("pipeline: compact synonym %q maps to both %s and %s", raw, existing, id))
	}
	r.compact[ck] = id
}

var registries = map[Board]*Registry{
	BoardCommercial: newRegistry(BoardCommercial, StageLead, nil, []stageSpec{
		{StageDefinition{StageLead, "Lead", "slate"}, []string{"NOVO", "NOVO LEAD", "PROSPECT"}},
		{StageDefinition{StageInitialContact, "Contato Inicial", "sky"}, []string{"CONTATO", "EM CONTATO", "PRIMEIRO CONTATO"}},
		{StageDefinition{StageMeetingScheduled, "Reunião Agendada", "indigo"}, []string{"REUNIAO", "AGENDADO", "REUNIAO MARCADA"}},
		{StageDefinition{StageSendContract, "Enviar Contrato", "amber"}, []string{"CONTRATO", "CONTRATO ENVIADO", "AGUARDANDO CONTRATO"}},
		{StageDefinition{StageContractSigned, "Contrato Assinado", "teal"}, []string{"ASSINADO"}},
		{StageDefinition{StageRegistrations, "Cadastros", "violet"}, []string{"CADASTRO", "EM CADASTRO"}},
		{StageDefinition{StageCompleted, "Concluído", "green"}, []string{"FECHADO", "GANHO", "FINALIZADO", "APROVADA", "APROVADO", "LANCADO", "EMITIDO"}},
		{StageDefinition{StageLost, "Perdido", "red"}, []string{"DESCARTADO", "CANCELADO", "PERDA"}},
	}),
	BoardOperations: newRegistry(BoardOperations, StageOPGenerated, operationsRules, []stageSpec{
		{StageDefinition{StageOPGenerated, "OP Gerada", "slate"}, []string{"OP", "PENDENTE", "NOVA", "ORDEM GERADA"}},
		{StageDefinition{StageLinkGenerated, "Link Gerado", "amber"}, []string{"LINK", "LINK ENVIADO", "AGUARDANDO PAGAMENTO"}},
		{StageDefinition{StagePaymentConfirmed, "Pagamento Confirmado", "sky"}, []string{"PAGO", "CONFIRMADO", "PAGAMENTO OK"}},
		{StageDefinition{StageInEmission, "Em Emissão", "indigo"}, []string{"EMISSAO", "EMITINDO"}},
		{StageDefinition{StageEmittedByUser, "Emitido (usuário)", "green"}, []string{"EMITIDA", "CONCLUIDO"}},
		{StageDefinition{StageEmittedByCompany, "Emitido (7C)", "teal"}, []string{"EMITIDO EMPRESA", "EMITIDO PELA EMPRESA"}},
		{StageDefinition{StageCancelled, "Cancelado / Erro", "red"}, []string{"CANCELADA", "ERRO", "FALHA"}},
	}),
	BoardQuotations: newRegistry(BoardQuotations, StageQuoteNew, nil, []stageSpec{
		{StageDefinition{StageQuoteNew, "Nova", "slate"}, []string{"NOVO", "PENDENTE", "ABERTA"}},
		{StageDefinition{StageQuoteAnalysis, "Em Análise", "sky"}, []string{"ANALISE", "EM ANDAMENTO"}},
		{StageDefinition{StageQuoteSent, "Enviada", "amber"}, []string{"ENVIADO", "COTACAO ENVIADA"}},
		{StageDefinition{StageQuoteApproved, "Aprovada", "green"}, []string{"APROVADA", "LANCADO", "LANCADA", "EMITIDO", "EMITIDA", "FECHADA"}},
		{StageDefinition{StageQuoteDeclined, "Recusada", "red"}, []string{"RECUSADO", "REJEITADA", "PERDIDA", "CANCELADA"}},
	}),
}

// RegistryFor returns the registry of a board.
func RegistryFor(board Board) (*Registry, error) {
	reg, ok := registries[board]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBoard, strings.TrimSpace(string(board)))
	}
	return reg, nil
}

// MustRegistry is RegistryFor for compile-time constant boards.
func MustRegistry(board Board) *Registry {
	reg, err := RegistryFor(board)
	if err != nil {
		panic(err)
	}
	return reg
}

// Board returns the board this registry belongs to.
func (r *Registry) Board() Board { return r.board }

// Stages returns the ordered stage list.
func (r *Registry) Stages() []StageDefinition {
	cp := make([]StageDefinition, len(r.stages))
	copy(cp, r.stages)
	return cp
}

// Stage looks up a stage definition by id.
func (r *Registry) Stage(id StageID) (StageDefinition, bool) {
	idx, ok := r.index[id]
	if !ok {
		return StageDefinition{}, false
	}
	return r.stages[idx], true
}

// Has reports whether id is registered on this board.
func (r *Registry) Has(id StageID) bool {
	_, ok := r.index[id]
	return ok
}

// Position returns the zero-based column index of id, or -1.
func (r *Registry) Position(id StageID) int {
	if idx, ok := r.index[id]; ok {
		return idx
	}
	return -1
}

// Default returns the stage unrecognized statuses fall back to.
func (r *Registry) Default() StageID { return r.defaultStage }

// Guarded reports whether transitions on this board follow a state machine.
func (r *Registry) Guarded() bool { return r.rules != nil }

package session

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Token captures the selection a fetch was issued for. A completion is
// applied only while the session's selection still matches the token.
type Token struct {
	ID         uuid.UUID
	Genome     string
	GeneID     string
	Generation uint64
}

// Fields returns zap fields identifying the request.
func (t Token) Fields() []zap.Field {
	return []zap.Field{
		zap.String("request_id", t.ID.String()),
		zap.String("genome", t.Genome),
		zap.String("gene_id", t.GeneID),
		zap.Uint64("generation", t.Generation),
	}
}

// selection is the part of the state that fetches are tagged with.
type selection struct {
	genome     string
	geneID     string
	generation uint64
}

func (sel selection) token() Token {
	return Token{
		ID:         uuid.New(),
		Genome:     sel.genome,
		GeneID:     sel.geneID,
		Generation: sel.generation,
	}
}

func (sel selection) matches(t Token) bool {
	return sel.genome == t.Genome && sel.geneID == t.GeneID && sel.generation == t.Generation
}

package services

import (
	"time"

	"go.uber.org/zap"

	"institute-seed/models"
)

// KindSummary zählt die Ergebnisse einer Entitätsart.
type KindSummary struct {
	Created       int `json:"created"`
	Updated       int `json:"updated"`
	Skipped       int `json:"skipped"`
	PublishedOnly int `json:"publishedOnly"`
	Failed        int `json:"failed"`
	PublishFailed int `json:"publishFailed"`
}

// Summary ist das Ergebnis eines Laufs.
type Summary struct {
	StartedAt  time.Time                    `json:"startedAt"`
	FinishedAt time.Time                    `json:"finishedAt"`
	DataRoot   string                       `json:"dataRoot"`
	Kinds      map[models.Kind]*KindSummary `json:"kinds"`
	Stage      Stage                        `json:"stage"`
}

func newSummary(root string, now time.Time) *Summary {
	return &Summary{StartedAt: now, DataRoot: root, Kinds: make(map[models.Kind]*KindSummary)}
}

// Kind gibt die Zähler einer Art zurück (nie nil).
func (s *Summary) Kind(kind models.Kind) *KindSummary {
	k, ok := s.Kinds[kind]
	if !ok {
		k = &KindSummary{}
		s.Kinds[kind] = k
	}
	return k
}

func (s *Summary) record(kind models.Kind, out Outcome) {
	k := s.Kind(kind)
	switch out.Action {
	case Created:
		k.Created++
	case Updated:
		k.Updated++
	case Skipped:
		k.Skipped++
	case PublishedOnly:
		k.PublishedOnly++
	}
	if out.PublishErr != nil {
		k.PublishFailed++
	}
}

// Totals summiert über alle Arten.
func (s *Summary) Totals() KindSummary {
	var t KindSummary
	for _, k := range s.Kinds {
		t.Created += k.Created
		t.Updated += k.Updated
		t.Skipped += k.Skipped
		t.PublishedOnly += k.PublishedOnly
		t.Failed += k.Failed
		t.PublishFailed += k.PublishFailed
	}
	return t
}

func (s *Summary) log(logger *zap.Logger) {
	for _, kind := range summaryOrder {
		k, ok := s.Kinds[kind]
		if !ok {
			continue
		}
		logger.Info("Import summary",
			zap.String("kind", string(kind)),
			zap.Int("created", k.Created),
			zap.Int("updated", k.Updated),
			zap.Int("skipped", k.Skipped),
			zap.Int("published_only", k.PublishedOnly),
			zap.Int("failed", k.Failed),
			zap.Int("publish_failed", k.PublishFailed),
		)
	}
	t := s.Totals()
	logger.Info("Seed run finished",
		zap.String("stage", string(s.Stage)),
		zap.Duration("duration", s.FinishedAt.Sub(s.StartedAt)),
		zap.Int("created", t.Created),
		zap.Int("updated", t.Updated),
		zap.Int("skipped", t.Skipped),
		zap.Int("failed", t.Failed),
		zap.Int("publish_failed", t.PublishFailed),
	)
}

var summaryOrder = []models.Kind{
	models.KindDepartment,
	models.KindSupportUnit,
	models.KindPerson,
	models.KindPublication,
	models.KindTheme,
	models.KindPartner,
	models.KindProject,
	models.KindEvent,
	models.KindSeminar,
}

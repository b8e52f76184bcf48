package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"alfredoptarigan/cv-screener/internal/models"
)

const (
	// text-embedding-004 output size
	embeddingSize  = 768
	indexChunkSize = 1000
	indexOverlap   = 150
	searchFanout   = 4
)

// ReportIndex is the optional semantic search over persisted reports.
type ReportIndex interface {
	InitCollection(ctx context.Context) error
	IndexReport(ctx context.Context, report *models.Report, result *models.AnalysisResult) error
	Search(ctx context.Context, query string, ownerID *uuid.UUID, limit int) ([]IndexHit, error)
	RemoveReport(ctx context.Context, reportID uuid.UUID) error
}

type IndexHit struct {
	ReportID uuid.UUID
	Score    float32
	Snippet  string
}

type qdrantIndex struct {
	client     *qdrant.Client
	collection string
	embedder   Embedder
	chunker    TextChunker
	logger     *slog.Logger
}

func NewQdrantIndex(urlStr, apiKey, collection string, embedder Embedder, logger *slog.Logger) (ReportIndex, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	// gRPC port unless the URL says otherwise
	port := 6334
	if p := parsed.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   parsed.Hostname(),
		Port:   port,
		APIKey: apiKey,
		UseTLS: parsed.Scheme == "https",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &qdrantIndex{
		client:     client,
		collection: collection,
		embedder:   embedder,
		chunker:    NewTextChunker(),
		logger:     logger,
	}, nil
}

func (q *qdrantIndex) InitCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     embeddingSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	q.logger.Info("qdrant collection created", slog.String("collection", q.collection))
	return nil
}

// IndexReport replaces whatever the index holds for the report.
func (q *qdrantIndex) IndexReport(ctx context.Context, report *models.Report, result *models.AnalysisResult) error {
	chunks := q.chunker.ChunkText(reportIndexText(report, result), indexChunkSize, indexOverlap)
	if len(chunks) == 0 {
		return nil
	}

	if err := q.RemoveReport(ctx, report.ID); err != nil {
		return err
	}

	points := make([]*qdrant.PointStruct, 0, len(chunks))
	for i, chunk := range chunks {
		embedding, err := q.embedder.GenerateEmbedding(ctx, chunk)
		if err != nil {
			return fmt.Errorf("failed to embed chunk %d: %w", i, err)
		}
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(uuid.NewString()),
			Vectors: qdrant.NewVectors(embedding...),
			Payload: qdrant.NewValueMap(map[string]any{
				"report_id":   report.ID.String(),
				"owner_id":    report.OwnerID.String(),
				"chunk_index": i,
				"text":        chunk,
			}),
		})
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	q.logger.Info("report indexed", slog.String("report_id", report.ID.String()), slog.Int("chunks", len(points)))
	return nil
}

// Search returns distinct reports, best first. A nil ownerID searches every
// owner's reports.
func (q *qdrantIndex) Search(ctx context.Context, query string, ownerID *uuid.UUID, limit int) ([]IndexHit, error) {
	if limit <= 0 {
		limit = 10
	}

	embedding, err := q.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	var filter *qdrant.Filter
	if ownerID != nil {
		filter = &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("owner_id", ownerID.String()),
			},
		}
	}

	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(embedding...),
		Filter:         filter,
		Limit:          qdrant.PtrOf(uint64(limit * searchFanout)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	hits := make([]IndexHit, 0, len(points))
	for _, point := range points {
		id, err := uuid.Parse(payloadString(point.Payload, "report_id"))
		if err != nil {
			continue
		}
		hits = append(hits, IndexHit{
			ReportID: id,
			Score:    point.Score,
			Snippet:  payloadString(point.Payload, "text"),
		})
	}

	return collapseHits(hits, limit), nil
}

func (q *qdrantIndex) RemoveReport(ctx context.Context, reportID uuid.UUID) error {
	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collection,
		Wait:           qdrant.PtrOf(true),
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: &qdrant.Filter{
					Must: []*qdrant.Condition{
						qdrant.NewMatch("report_id", reportID.String()),
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete report points: %w", err)
	}
	return nil
}

func payloadString(payload map[string]*qdrant.Value, key string) string {
	if v, ok := payload[key]; ok {
		if s, ok := v.GetKind().(*qdrant.Value_StringValue); ok {
			return s.StringValue
		}
	}
	return ""
}

// collapseHits keeps the best-scoring chunk of each report.
func collapseHits(hits []IndexHit, limit int) []IndexHit {
	best := make(map[uuid.UUID]int, len(hits))
	var out []IndexHit
	for _, hit := range hits {
		if i, ok := best[hit.ReportID]; ok {
			if hit.Score > out[i].Score {
				out[i] = hit
			}
			continue
		}
		best[hit.ReportID] = len(out)
		out = append(out, hit)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// reportIndexText is what gets embedded for a report. Without an analysis
// result (reindexing from metadata) only the stored fields are used.
func reportIndexText(report *models.Report, result *models.AnalysisResult) string {
	parts := []string{
		"Job Description: " + report.JobDescriptionFilename,
		"Candidates: " + report.CandidateList(),
	}
	if report.Summary != "" && report.Summary != models.DefaultReportSummary {
		parts = append(parts, report.Summary)
	}

	if result != nil {
		for _, eval := range result.CandidateEvaluations {
			line := strings.Join([]string{eval.CandidateName, eval.KeyStrengths, eval.KeyGaps, eval.Comments}, ". ")
			parts = append(parts, line)
		}
		if result.HasObservations() {
			parts = append(parts, strings.TrimSpace(result.AdditionalObservations))
		}
	}

	return strings.Join(parts, "\n\n")
}

package biz

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kart-io/logger"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/kart-io/sentinel-docqa/internal/pkg/rag/docutil"
	"github.com/kart-io/sentinel-docqa/internal/pkg/rag/textutil"
	"github.com/kart-io/sentinel-docqa/internal/rag/metrics"
	"github.com/kart-io/sentinel-docqa/internal/rag/store"
	"github.com/kart-io/sentinel-docqa/pkg/errors"
	"github.com/kart-io/sentinel-docqa/pkg/infra/tracing"
	"github.com/kart-io/sentinel-docqa/pkg/llm"
)

const tracerName = "sentinel-docqa/biz"

// Service 定义文档问答服务接口。
type Service interface {
	// Ingest 将原始文本分块、向量化后写入 documentID 对应的集合。
	Ingest(ctx context.Context, documentID, rawText string) (*IngestReport, error)
	// IngestFile 提取 PDF 文本后入库，集合名由文件名推导。
	IngestFile(ctx context.Context, path string) (*IngestReport, error)
	// Answer 基于文档内容回答问题。
	Answer(ctx context.Context, question, documentName string) (string, error)
	// Documents 列出已入库的文档。
	Documents(ctx context.Context) ([]string, error)
	// DocumentText 返回上传目录中文档的文本。
	DocumentText(ctx context.Context, filename string) (string, error)
}

// IngestReport 入库结果，部分分块失败时仍然返回。
type IngestReport struct {
	DocumentID string `json:"document_id"`
	Chunks     int    `json:"chunks"`
	Stored     int    `json:"stored"`
	Dropped    int    `json:"dropped"`
}

// ProcessorConfig 流水线配置。
type ProcessorConfig struct {
	// ChunkSize 每个文本块的最大字符数（按 Unicode 码点）。
	ChunkSize int
	// TopK 每个问题分块的检索条数。
	TopK int
	// UploadDir 上传文件目录。
	UploadDir string
}

// Processor 组合分块、向量化、向量存储与生成模型。
type Processor struct {
	store     store.VectorStore
	embedder  *embedder
	generator llm.GenerationProvider
	metrics   *metrics.RAGMetrics
	config    *ProcessorConfig
}

var _ Service = (*Processor)(nil)

// NewProcessor 创建 Processor。m 为空时使用独立的指标实例。
func NewProcessor(
	vectorStore store.VectorStore,
	embedProvider llm.EmbeddingProvider,
	genProvider llm.GenerationProvider,
	taskPool TaskPool,
	m *metrics.RAGMetrics,
	config *ProcessorConfig,
) *Processor {
	if m == nil {
		m = metrics.New("docqa")
	}
	return &Processor{
		store:     vectorStore,
		embedder:  &embedder{provider: embedProvider, pool: taskPool},
		generator: genProvider,
		metrics:   m,
		config:    config,
	}
}

// Ingest 分块、并发向量化并写入集合。
func (p *Processor) Ingest(ctx context.Context, documentID, rawText string) (_ *IngestReport, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "Processor.Ingest",
		attribute.String("document.id", documentID))

	report := &IngestReport{DocumentID: documentID}
	defer func() {
		p.metrics.RecordIngest(report.Stored, report.Dropped, err)
		tracing.EndSpan(span, err)
	}()

	if documentID == "" {
		return nil, errors.ErrBadIdentifier.WithMessage("document id is empty")
	}

	chunks, err := textutil.Chunk(rawText, p.config.ChunkSize)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("document.chunks", len(chunks)))

	report.Chunks = len(chunks)
	if len(chunks) == 0 {
		// 空文档也建集合，保证出现在文档列表中
		if err := p.store.EnsureCollection(ctx, documentID); err != nil {
			return nil, err
		}
		logger.Infow("empty document ingested", "document", documentID)
		return report, nil
	}

	start := time.Now()
	results := p.embedder.embedAll(ctx, chunks)
	p.metrics.ObserveStage(metrics.StageEmbed, start)

	kept := survivors(results, chunks, documentID)
	report.Stored = len(kept)
	report.Dropped = len(chunks) - len(kept)
	if len(kept) == 0 {
		return nil, errors.ErrEmbeddingFailed.WithMessagef("all %d chunks of %q failed to embed", len(chunks), documentID)
	}

	records := make([]store.Record, 0, len(kept))
	for _, i := range kept {
		records = append(records, store.Record{
			ID:     uuid.NewString(),
			Vector: results[i].vector,
			Text:   chunks[i],
		})
	}

	start = time.Now()
	if err := p.store.Upsert(ctx, documentID, records); err != nil {
		report.Stored = 0
		return nil, err
	}
	p.metrics.ObserveStage(metrics.StageUpsert, start)

	logger.Infow("document ingested",
		"document", documentID,
		"chunks", report.Chunks,
		"stored", report.Stored,
		"dropped", report.Dropped,
	)
	return report, nil
}

// IngestFile 提取 PDF 文本并入库。
func (p *Processor) IngestFile(ctx context.Context, path string) (*IngestReport, error) {
	documentID, err := DocumentID(path)
	if err != nil {
		return nil, err
	}

	text, err := docutil.ExtractPDFText(path)
	if err != nil {
		return nil, errors.ErrExtraction.WithCause(err)
	}

	return p.Ingest(ctx, documentID, text)
}

// Answer 检索文档相关片段并调用生成模型回答问题。
func (p *Processor) Answer(ctx context.Context, question, documentName string) (answer string, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "Processor.Answer",
		attribute.String("document.name", documentName))
	defer func() {
		p.metrics.RecordAnswer(err)
		tracing.EndSpan(span, err)
	}()

	collection, err := DocumentID(documentName)
	if err != nil {
		return "", err
	}

	chunks, err := textutil.Chunk(question, p.config.ChunkSize)
	if err != nil {
		return "", err
	}

	start := time.Now()
	results := p.embedder.embedAll(ctx, chunks)
	p.metrics.ObserveStage(metrics.StageEmbed, start)

	kept := survivors(results, chunks, collection)
	if len(kept) == 0 {
		return "", errors.ErrEmbeddingFailed.WithMessage("question could not be embedded")
	}

	start = time.Now()
	hits := make([][]string, len(kept))
	g, gctx := errgroup.WithContext(ctx)
	for slot, i := range kept {
		g.Go(func() error {
			texts, err := p.store.Search(gctx, collection, results[i].vector, p.config.TopK)
			if err != nil {
				return err
			}
			hits[slot] = texts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}
	p.metrics.ObserveStage(metrics.StageSearch, start)

	var contexts []string
	for _, texts := range hits {
		contexts = append(contexts, texts...)
	}
	span.SetAttributes(attribute.Int("answer.context_chunks", len(contexts)))

	prompt := BuildPrompt(strings.Join(contexts, ContextSeparator), question)

	start = time.Now()
	answer, err = p.generator.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	p.metrics.ObserveStage(metrics.StageGenerate, start)

	logger.Infow("question answered",
		"document", collection,
		"question", textutil.TruncateString(question, 80),
		"context_chunks", len(contexts),
	)
	return answer, nil
}

// Documents 列出所有文档集合。
func (p *Processor) Documents(ctx context.Context) ([]string, error) {
	return p.store.ListCollections(ctx)
}

// DocumentText 读取上传目录中的文档文本。
func (p *Processor) DocumentText(_ context.Context, filename string) (string, error) {
	path, err := docutil.SafeJoin(p.config.UploadDir, filename)
	if err != nil {
		return "", errors.ErrDocumentNotFound.WithCause(err)
	}
	if !docutil.FileExists(path) {
		return "", errors.ErrDocumentNotFound.WithMessagef("%q not found", filename)
	}

	text, err := docutil.ExtractPDFText(path)
	if err != nil {
		return "", errors.ErrDocumentNotFound.WithCause(err)
	}
	return text, nil
}

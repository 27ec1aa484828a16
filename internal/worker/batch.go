package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Ingester turns one line of text into a stored claim
type Ingester interface {
	// IngestText returns the new claim ID, or isClaim=false when the text holds no checkable claim
	IngestText(ctx context.Context, text string) (claimID string, isClaim bool, err error)
}

// Verifier runs verification for a stored claim and returns the verdict label
type Verifier interface {
	VerifyClaimID(ctx context.Context, claimID string) (label string, err error)
}

// ItemResult is the outcome for one input of a batch
type ItemResult struct {
	Index   int    `json:"index"`
	Input   string `json:"input"`
	ClaimID string `json:"claim_id,omitempty"`
	Skipped bool   `json:"skipped,omitempty"` // no claim detected
	Label   string `json:"label,omitempty"`
	Err     error  `json:"-"`
	Error   string `json:"error,omitempty"`
}

// GetError returns the item error
func (r *ItemResult) GetError() error {
	return r.Err
}

type ingestJob struct {
	index    int
	text     string
	ingester Ingester
	verifier Verifier // nil skips verification
}

func (j *ingestJob) Execute(ctx context.Context) Result {
	res := &ItemResult{Index: j.index, Input: j.text}
	id, isClaim, err := j.ingester.IngestText(ctx, j.text)
	if err != nil {
		return res.fail(err)
	}
	if !isClaim {
		res.Skipped = true
		return res
	}
	res.ClaimID = id
	if j.verifier == nil {
		return res
	}
	label, err := j.verifier.VerifyClaimID(ctx, id)
	if err != nil {
		return res.fail(err)
	}
	res.Label = label
	return res
}

type verifyJob struct {
	index    int
	claimID  string
	verifier Verifier
}

func (j *ingestJob) position() int { return j.index }
func (j *verifyJob) position() int { return j.index }

func (j *verifyJob) Execute(ctx context.Context) Result {
	res := &ItemResult{Index: j.index, Input: j.claimID, ClaimID: j.claimID}
	label, err := j.verifier.VerifyClaimID(ctx, j.claimID)
	if err != nil {
		return res.fail(err)
	}
	res.Label = label
	return res
}

func (r *ItemResult) fail(err error) *ItemResult {
	r.Err = err
	r.Error = err.Error()
	return r
}

// BatchProcessor fans batch inputs out over a Pool
type BatchProcessor struct {
	ingester    Ingester
	verifier    Verifier
	concurrency int
}

// NewBatchProcessor creates a processor; either collaborator may be nil when unused
func NewBatchProcessor(ingester Ingester, verifier Verifier, concurrency int) *BatchProcessor {
	return &BatchProcessor{ingester: ingester, verifier: verifier, concurrency: concurrency}
}

// IngestTexts ingests every text, verifying each detected claim when verify is set.
// Results are returned in input order.
func (b *BatchProcessor) IngestTexts(ctx context.Context, texts []string, verify bool) []*ItemResult {
	var verifier Verifier
	if verify {
		verifier = b.verifier
	}
	jobs := make([]Job, len(texts))
	for i, text := range texts {
		jobs[i] = &ingestJob{index: i, text: text, ingester: b.ingester, verifier: verifier}
	}
	return b.run(ctx, jobs, texts)
}

// VerifyClaims verifies the given claim IDs; results are returned in input order
func (b *BatchProcessor) VerifyClaims(ctx context.Context, claimIDs []string) []*ItemResult {
	jobs := make([]Job, len(claimIDs))
	for i, id := range claimIDs {
		jobs[i] = &verifyJob{index: i, claimID: id, verifier: b.verifier}
	}
	return b.run(ctx, jobs, claimIDs)
}

// IngestFile reads one text per line and ingests them
func (b *BatchProcessor) IngestFile(ctx context.Context, filePath string, verify bool) ([]*ItemResult, error) {
	lines, err := ReadLinesFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read inputs: %w", err)
	}
	return b.IngestTexts(ctx, lines, verify), nil
}

func (b *BatchProcessor) run(ctx context.Context, jobs []Job, inputs []string) []*ItemResult {
	if len(jobs) == 0 {
		return []*ItemResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	// feed from a goroutine so results can drain while jobs queue up
	go func() {
		defer pool.Close()
		for _, job := range jobs {
			if !pool.Submit(job) {
				return
			}
		}
	}()

	out := make([]*ItemResult, 0, len(jobs))
	for result := range pool.Results() {
		switch r := result.(type) {
		case *ItemResult:
			out = append(out, r)
		case *PanicResult:
			idx, input := -1, ""
			if ij, ok := r.Job.(interface{ position() int }); ok {
				idx = ij.position()
				input = inputs[idx]
			}
			out = append(out, (&ItemResult{Index: idx, Input: input}).fail(r.GetError()))
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// ReadLinesFromFile reads non-empty, non-# lines, dropping duplicates
func ReadLinesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var lines []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return lines, nil
}

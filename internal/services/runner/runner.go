package runner

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"codecollab/internal/roomstore"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const resultKeyPrefix = "run:"

// Per-language engine versions and entry filenames, matching what the
// public Piston instance serves.
var runtimes = map[roomstore.Language]struct {
	version  string
	filename string
}{
	roomstore.LangJavascript: {"18.15.0", "main.js"},
	roomstore.LangPython:     {"3.10.0", "main.py"},
	roomstore.LangJava:       {"15.0.2", "Main.java"},
}

// IRunnerService executes a code snippet through the external engine and
// returns its combined output as display lines. Failures of any kind
// (network, HTTP status, malformed response) surface as a single
// descriptive line — never as an error, and never retried.
type IRunnerService interface {
	Run(ctx context.Context, lang roomstore.Language, content string) []string
}

type runnerService struct {
	apiURL   string
	client   *http.Client
	rdc      *redis.Client // nil disables the result cache
	cacheTTL time.Duration
}

// NewRunnerService builds the execution client. rdc may be nil; with a
// client present, identical snippets within the TTL skip the external call.
func NewRunnerService(apiURL string, timeout time.Duration, rdc *redis.Client, cacheTTL time.Duration) IRunnerService {
	return &runnerService{
		apiURL:   apiURL,
		client:   &http.Client{Timeout: timeout},
		rdc:      rdc,
		cacheTTL: cacheTTL,
	}
}

type execFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type execRequest struct {
	Language string     `json:"language"`
	Version  string     `json:"version"`
	Files    []execFile `json:"files"`
}

type execResponse struct {
	Run struct {
		Stdout string `json:"stdout"`
		Stderr string `json:"stderr"`
		Output string `json:"output"`
	} `json:"run"`
	Message string `json:"message"`
}

func (svc *runnerService) Run(ctx context.Context, lang roomstore.Language, content string) []string {
	rt, ok := runtimes[lang]
	if !ok {
		return []string{fmt.Sprintf("Error: unsupported language %q", lang)}
	}

	key := resultKey(lang, content)
	if lines, ok := svc.cacheGet(ctx, key); ok {
		return lines
	}

	lines := svc.execute(ctx, lang, rt.version, rt.filename, content)
	svc.cacheSet(ctx, key, lines)
	return lines
}

func (svc *runnerService) execute(ctx context.Context, lang roomstore.Language, version, filename, content string) []string {
	payload, err := json.Marshal(execRequest{
		Language: string(lang),
		Version:  version,
		Files:    []execFile{{Name: filename, Content: content}},
	})
	if err != nil {
		return errorLine(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, svc.apiURL, bytes.NewReader(payload))
	if err != nil {
		return errorLine(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := svc.client.Do(req)
	if err != nil {
		zap.L().Warn("runner.exec", zap.Error(err))
		return errorLine(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return errorLine(err)
	}

	var out execResponse
	if err := json.Unmarshal(body, &out); err != nil {
		zap.L().Warn("runner.decode", zap.Int("status", resp.StatusCode), zap.Error(err))
		return errorLine(fmt.Errorf("engine returned status %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		msg := out.Message
		if msg == "" {
			msg = fmt.Sprintf("engine returned status %d", resp.StatusCode)
		}
		return []string{"Error: " + msg}
	}

	combined := out.Run.Output
	if combined == "" {
		combined = out.Run.Stdout + out.Run.Stderr
	}
	return splitLines(combined)
}

// ─────────────────────────────── cache ──────────────────────────────────────

func (svc *runnerService) cacheGet(ctx context.Context, key string) ([]string, bool) {
	if svc.rdc == nil {
		return nil, false
	}
	raw, err := svc.rdc.Get(ctx, key).Result()
	if err != nil {
		return nil, false
	}
	var lines []string
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil, false
	}
	return lines, true
}

func (svc *runnerService) cacheSet(ctx context.Context, key string, lines []string) {
	if svc.rdc == nil {
		return
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return
	}
	if err := svc.rdc.Set(ctx, key, raw, svc.cacheTTL).Err(); err != nil {
		zap.L().Debug("runner.cache_set", zap.Error(err))
	}
}

func resultKey(lang roomstore.Language, content string) string {
	sum := sha256.Sum256([]byte(content))
	return resultKeyPrefix + string(lang) + ":" + hex.EncodeToString(sum[:])
}

// ─────────────────────────────── helpers ────────────────────────────────────

func errorLine(err error) []string {
	return []string{"Error: " + err.Error()}
}

func splitLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return []string{}
	}
	return strings.Split(s, "\n")
}

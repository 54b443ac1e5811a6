package github

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/reviewd/internal/domain"
	redisstore "github.com/gosuda/reviewd/internal/store/redis"
)

// placeholder substituted for a file whose raw fetch fails.
const unavailablePlaceholder = "[Not available]"

// codeExtensions is the allowlist of reviewable file types: source and
// markup/config files, not binaries or lockfiles.
var codeExtensions = map[string]struct{}{
	".py":   {},
	".js":   {},
	".ts":   {},
	".tsx":  {},
	".go":   {},
	".rs":   {},
	".rb":   {},
	".java": {},
	".cpp":  {},
	".c":    {},
	".h":    {},
	".html": {},
	".css":  {},
	".json": {},
	".yaml": {},
	".yml":  {},
	".toml": {},
	".sql":  {},
	".sh":   {},
	".md":   {},
}

func isCodeFile(path string) bool {
	_, ok := codeExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Result is the terminal payload of a fetch: the resolved branch tip and the
// accumulated file batch, in tree-listing order.
type Result struct {
	SHA   string
	Files []domain.FetchedFile
}

// Event is one item of the fetch stream: exactly one of Log, Result or Err is
// set. Result and Err are terminal.
type Event struct {
	Log    string
	Result *Result
	Err    error
}

// Fetcher retrieves the reviewable files of a branch, narrating progress as a
// stream of events. It holds no cross-call state; a failed fetch is restarted
// by calling Fetch again.
type Fetcher struct {
	client *Client
	cache  *redisstore.BlobCache // nil disables caching
}

func NewFetcher(client *Client, cache *redisstore.BlobCache) *Fetcher {
	return &Fetcher{client: client, cache: cache}
}

// Fetch resolves the branch, lists and filters its tree, and retrieves each
// matching file's content. Events arrive on the returned channel: narration
// lines first, then a single terminal event carrying either the file batch or
// an error. The channel is closed after the terminal event.
func (f *Fetcher) Fetch(ctx context.Context, owner, repo, branch string) <-chan Event {
	events := make(chan Event, 16)

	go func() {
		defer close(events)
		f.run(ctx, owner, repo, branch, events)
	}()

	return events
}

func (f *Fetcher) run(ctx context.Context, owner, repo, branch string, events chan<- Event) {
	repoFullName := owner + "/" + repo

	events <- Event{Log: "Getting branch SHA..."}
	sha, err := f.client.BranchSHA(ctx, owner, repo, branch)
	if err != nil {
		events <- Event{Err: err}
		return
	}

	events <- Event{Log: "Getting file tree..."}
	tree, err := f.client.Tree(ctx, owner, repo, sha)
	if err != nil {
		events <- Event{Err: err}
		return
	}

	var items []TreeEntry
	for _, entry := range tree {
		if entry.Type == "blob" && isCodeFile(entry.Path) {
			items = append(items, entry)
		}
	}

	events <- Event{Log: fmt.Sprintf("Found %d code files. Fetching...", len(items))}

	files := make([]domain.FetchedFile, 0, len(items))
	for i, item := range items {
		if i%5 == 0 || i == len(items)-1 {
			events <- Event{Log: fmt.Sprintf("Fetching file %d/%d...", i+1, len(items))}
		}

		content, err := f.fileContent(ctx, repoFullName, sha, owner, repo, item.Path)
		if err != nil {
			events <- Event{Err: err}
			return
		}

		// Empty or whitespace-only files carry nothing worth reviewing.
		if strings.TrimSpace(content) == "" {
			continue
		}

		files = append(files, domain.FetchedFile{
			Path:     item.Path,
			Content:  content,
			Encoding: "text",
		})
	}

	events <- Event{Log: fmt.Sprintf("Fetched %d files.", len(files))}
	events <- Event{Result: &Result{SHA: sha, Files: files}}
}

// fileContent returns a blob's content, consulting the cache first. An
// unreachable file substitutes the unavailable placeholder rather than
// failing the batch; only cancellation propagates.
func (f *Fetcher) fileContent(ctx context.Context, repoFullName, sha, owner, repo, path string) (string, error) {
	cached, hit, err := f.cache.Get(ctx, repoFullName, sha, path)
	if err != nil {
		log.Debug().Err(err).Str("path", path).Msg("blob cache read failed")
	}
	if hit {
		return cached, nil
	}

	content, ok, err := f.client.RawContent(ctx, owner, repo, sha, path)
	if err != nil {
		if ctx.Err() != nil {
			return "", err
		}
		log.Warn().Err(err).Str("path", path).Msg("raw content fetch failed")
		return unavailablePlaceholder, nil
	}
	if !ok {
		return unavailablePlaceholder, nil
	}

	if err := f.cache.Set(ctx, repoFullName, sha, path, content); err != nil {
		log.Debug().Err(err).Str("path", path).Msg("blob cache write failed")
	}

	return content, nil
}

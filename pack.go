// Package sqpack resolves virtual game-file paths against a sharded,
// block-compressed archive set and reconstructs the decompressed bytes of
// the requested file.
//
// A Pack memory-maps the .index/.index2 shards and .dat<n> files it needs on
// first demand and keeps two bounded caches warm: a small LRU of opened
// index shards, and a larger adaptive-replacement cache of fully
// reconstructed file contents keyed by path hash. All mapped files are
// read-only; Pack never mutates an archive.
//
// Pack is safe for concurrent readers once constructed.
package sqpack

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/hashicorp/golang-lru/arc/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/exp/mmap"
)

func init() {
	if runtime.GOOS == "windows" {
		runtime.SetFinalizer(&Pack{}, func(p *Pack) { _ = p.Close() })
	}
}

const (
	shardCacheSize   = 64   // open (category,repo,chunk) index shards kept mapped at once
	contentCacheSize = 4096 // reconstructed file contents kept warm
)

type shardKey struct {
	category CategoryID
	repo     RepositoryID
	chunk    uint8
}

// shard is one opened (category, repo, chunk) index pair plus its lazily
// opened dat files.
type shard struct {
	twoHash *twoHashIndex
	single  *singleHashIndex

	mu   sync.Mutex
	dats map[int]*mmap.ReaderAt

	root     string
	platform Platform
	key      shardKey
}

func (s *shard) datFile(idx int) (*mmap.ReaderAt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.dats[idx]; ok {
		return r, nil
	}
	name := shardFilename(s.key.category, s.key.chunk, s.key.repo, s.platform, fmt.Sprintf("dat%d", idx))
	r, err := mmap.Open(filepath.Join(s.root, "sqpack", s.key.repo.String(), name))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIo, err)
	}
	if s.dats == nil {
		s.dats = make(map[int]*mmap.ReaderAt)
	}
	s.dats[idx] = r
	return r, nil
}

func (s *shard) close() error {
	var firstErr error
	if s.twoHash != nil {
		if err := s.twoHash.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.single != nil {
		if err := s.single.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, r := range s.dats {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func shardFilename(cat CategoryID, chunk uint8, repo RepositoryID, platform Platform, ext string) string {
	return fmt.Sprintf("%02x%02x%02x00.%s.%s", uint8(cat), chunk, repo.Number(), platform, ext)
}

// Pack orchestrates category/repository/index/dat resolution for a single
// game installation root.
type Pack struct {
	root     string
	platform Platform

	mu     sync.Mutex
	shards *lru.Cache[shardKey, *shard]

	content *arc.ARCCache[uint64, []byte]
}

// OpenPack constructs a Pack rooted at cfg.Root. It does not eagerly open any
// shard; shards are mapped lazily on first GetFileContents/GetTypedFile call.
func OpenPack(cfg Config) (*Pack, error) {
	if err := cfg.checkPlatform(); err != nil {
		return nil, err
	}

	p := &Pack{root: cfg.Root, platform: cfg.platform()}

	shards, err := lru.NewWithEvict[shardKey, *shard](shardCacheSize, func(_ shardKey, s *shard) {
		_ = s.close()
	})
	if err != nil {
		return nil, fmt.Errorf("sqpack: create shard cache: %w", err)
	}
	p.shards = shards

	content, err := arc.NewARC[uint64, []byte](contentCacheSize)
	if err != nil {
		return nil, fmt.Errorf("sqpack: create content cache: %w", err)
	}
	p.content = content

	return p, nil
}

// Close unmaps every shard and dat file the Pack has opened.
func (p *Pack) Close() error {
	if p == nil || p.shards == nil {
		return nil
	}
	var firstErr error
	for _, key := range p.shards.Keys() {
		if s, ok := p.shards.Peek(key); ok {
			if err := s.close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	p.shards.Purge()
	return firstErr
}

func splitVirtualPath(path string) (firstSeg, secondSeg string) {
	parts := strings.SplitN(path, "/", 3)
	firstSeg = ""
	if len(parts) > 0 {
		firstSeg = parts[0]
	}
	if len(parts) > 1 {
		secondSeg = parts[1]
	}
	return firstSeg, secondSeg
}

func (p *Pack) resolvePathLocation(path string) (shardKey, error) {
	first, second := splitVirtualPath(lowerASCII(path))
	cat, err := resolveCategory(first)
	if err != nil {
		return shardKey{}, newPathError("resolve", path, err)
	}
	repo, err := repositoryFromString(second, true)
	if err != nil {
		return shardKey{}, newPathError("resolve", path, err)
	}
	chunk := chunkForCategory(cat, second)
	return shardKey{category: cat, repo: repo, chunk: chunk}, nil
}

func (p *Pack) openShard(key shardKey) (*shard, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if s, ok := p.shards.Get(key); ok {
		return s, nil
	}

	s := &shard{root: p.root, platform: p.platform, key: key}

	idx2Path := filepath.Join(p.root, "sqpack", key.repo.String(), shardFilename(key.category, key.chunk, key.repo, p.platform, "index2"))
	if r, err := mmap.Open(idx2Path); err == nil {
		single, err := parseSingleHashIndex(r)
		if err != nil {
			_ = r.Close()
			return nil, err
		}
		s.single = single
	}

	idxPath := filepath.Join(p.root, "sqpack", key.repo.String(), shardFilename(key.category, key.chunk, key.repo, p.platform, "index"))
	if r, err := mmap.Open(idxPath); err == nil {
		two, err := parseTwoHashIndex(r)
		if err != nil {
			_ = r.Close()
			return nil, err
		}
		s.twoHash = two
	}

	if s.single == nil && s.twoHash == nil {
		return nil, fmt.Errorf("%w: no index shard for category %#x repo %s chunk %d", ErrFileNotFound, key.category, key.repo, key.chunk)
	}

	p.shards.Add(key, s)
	return s, nil
}

func (s *shard) lookup(path string) (indexEntry, bool) {
	if s.single != nil {
		full := hashPath(path)
		if e, ok := s.single.find(full); ok {
			return e, true
		}
		return indexEntry{}, false
	}
	folder, file := splitHash(path)
	return s.twoHash.find(folder, file)
}

func contentCacheKey(key shardKey, path string) uint64 {
	full := hashPath(path)
	return uint64(key.category)<<56 | uint64(key.chunk)<<48 | uint64(key.repo.Number())<<40 | uint64(full)
}

// GetFileContents resolves path to its archive location and returns the
// fully reconstructed, decompressed file contents.
func (p *Pack) GetFileContents(path string) ([]byte, error) {
	key, err := p.resolvePathLocation(path)
	if err != nil {
		return nil, err
	}

	cacheKey := contentCacheKey(key, path)
	if b, ok := p.content.Get(cacheKey); ok {
		return b, nil
	}

	s, err := p.openShard(key)
	if err != nil {
		return nil, newPathError("open", path, err)
	}

	entry, ok := s.lookup(path)
	if !ok {
		return nil, newPathError("lookup", path, ErrFileNotFound)
	}

	dat, err := s.datFile(entry.datIndex)
	if err != nil {
		return nil, newPathError("open dat", path, err)
	}

	data, err := readFile(dat, entry.blockOffset)
	if err != nil {
		return nil, newPathError("read", path, err)
	}

	p.content.Add(cacheKey, data)
	return data, nil
}

// GetTypedFile resolves path, reads its raw contents, and hands them to
// parse. parse must not retain the byte slice past return; it should copy
// whatever fields it needs, matching the typed-file plug-in contract.
func GetTypedFile[T any](p *Pack, path string, parse func([]byte) (T, error)) (T, error) {
	data, err := p.GetFileContents(path)
	if err != nil {
		var zero T
		return zero, err
	}
	return parse(data)
}

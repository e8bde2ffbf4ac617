package vfs

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sync"
)

// magic identifies a file written by BlockStore, so C5's opener can tell a
// compressed-layout file apart from a plain SQLite file or an empty one
// (§4.5 "validates that the file is either empty or already in the
// compressed layout").
var magic = [8]byte{'g', 's', 'q', 'l', 'z', 's', 't', 'd'}

// ErrBadMagic is returned when an existing file is neither empty nor tagged
// with BlockStore's magic header.
var ErrBadMagic = errors.New("vfs: file is not a compressed-layout container")

// footerEntry locates one outer block within the container file.
type footerEntry struct {
	offset int64
	length int64
}

// BlockStore is a page-compressing container file: fixed-size inner pages
// (the host engine's page size) are grouped and compressed into
// variable-length outer blocks written sequentially to an underlying file,
// with a footer table of block offsets appended on Close/Flush so any inner
// page can be randomly read back by recomputing which block holds it.
//
// One BlockStore wraps one *os.File and is not safe for concurrent use
// without external synchronization beyond what Pool already serializes.
type BlockStore struct {
	mu sync.Mutex

	f        *os.File
	codec    Codec
	pool     *Pool
	innerKiB int
	outerKiB int

	footer      []footerEntry
	pagesPerBlk int
}

// Open opens or creates path as a compressed-layout container. An empty
// file is initialized with the magic header; a non-empty file must already
// carry it, or Open returns ErrBadMagic.
func Open(path string, codec Codec, pool *Pool, innerKiB, outerKiB int) (*BlockStore, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("vfs.Open: %w", err)
	}

	bs := &BlockStore{
		f:        f,
		codec:    codec,
		pool:     pool,
		innerKiB: innerKiB,
		outerKiB: outerKiB,
	}
	if bs.pagesPerBlk = outerKiB / innerKiB; bs.pagesPerBlk < 1 {
		bs.pagesPerBlk = 1
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("vfs.Open: %w", err)
	}
	if info.Size() == 0 {
		if _, err := f.Write(magic[:]); err != nil {
			f.Close()
			return nil, fmt.Errorf("vfs.Open: writing header: %w", err)
		}
		return bs, nil
	}

	var hdr [8]byte
	if _, err := f.ReadAt(hdr[:], 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("vfs.Open: %w", err)
	}
	if hdr != magic {
		f.Close()
		return nil, ErrBadMagic
	}
	if err := bs.loadFooter(); err != nil {
		f.Close()
		return nil, fmt.Errorf("vfs.Open: %w", err)
	}
	return bs, nil
}

// loadFooter reads the trailing footer table written by Flush. The footer
// layout is a little-endian uint32 entry count followed by that many
// (offset, length) int64 pairs, trailed by an 8-byte absolute offset to the
// start of the footer itself so it can be located without a separate index.
func (bs *BlockStore) loadFooter() error {
	info, err := bs.f.Stat()
	if err != nil {
		return err
	}
	if info.Size() < 16 {
		return nil
	}

	var tail [8]byte
	if _, err := bs.f.ReadAt(tail[:], info.Size()-8); err != nil {
		return err
	}
	footerStart := int64(binary.LittleEndian.Uint64(tail[:]))
	if footerStart <= 0 || footerStart >= info.Size()-8 {
		return nil
	}

	buf := make([]byte, info.Size()-8-footerStart)
	if _, err := bs.f.ReadAt(buf, footerStart); err != nil {
		return err
	}
	count := binary.LittleEndian.Uint32(buf[:4])
	buf = buf[4:]
	bs.footer = make([]footerEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		off := int64(binary.LittleEndian.Uint64(buf[:8]))
		ln := int64(binary.LittleEndian.Uint64(buf[8:16]))
		bs.footer = append(bs.footer, footerEntry{offset: off, length: ln})
		buf = buf[16:]
	}
	return nil
}

// WritePages compresses a contiguous run of inner pages into one outer
// block and appends it to the container, recording its footer entry.
// Compression runs on the bounded worker Pool so a burst of writes is
// rate-shaped rather than competing unbounded with foreground reads (§5).
func (bs *BlockStore) WritePages(pages [][]byte) error {
	var blob []byte
	for _, p := range pages {
		blob = append(blob, p...)
	}

	var compressed []byte
	err := bs.pool.Run(func() error {
		compressed = bs.codec.Encode(nil, blob)
		return nil
	})
	if err != nil {
		return fmt.Errorf("vfs.WritePages: %w", err)
	}

	bs.mu.Lock()
	defer bs.mu.Unlock()

	info, err := bs.f.Stat()
	if err != nil {
		return fmt.Errorf("vfs.WritePages: %w", err)
	}
	off := info.Size()
	if _, err := bs.f.WriteAt(compressed, off); err != nil {
		return fmt.Errorf("vfs.WritePages: %w", err)
	}
	bs.footer = append(bs.footer, footerEntry{offset: off, length: int64(len(compressed))})
	return nil
}

// ReadBlock decompresses the blockIdx'th outer block written by WritePages.
func (bs *BlockStore) ReadBlock(blockIdx int) ([]byte, error) {
	compressed, err := bs.readCompressedBlock(blockIdx)
	if err != nil {
		return nil, err
	}

	var out []byte
	err = bs.pool.Run(func() error {
		decoded, err := bs.codec.Decode(nil, compressed)
		if err != nil {
			return err
		}
		out = decoded
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("vfs.ReadBlock: %w", err)
	}
	return out, nil
}

// readCompressedBlock fetches the blockIdx'th outer block's raw compressed
// bytes without touching the worker pool, so callers that are themselves
// already running on a pool worker (Rehydrate, via RunAll) can decode
// without nesting pool acquisitions.
func (bs *BlockStore) readCompressedBlock(blockIdx int) ([]byte, error) {
	bs.mu.Lock()
	if blockIdx < 0 || blockIdx >= len(bs.footer) {
		bs.mu.Unlock()
		return nil, fmt.Errorf("vfs.ReadBlock: block %d out of range (have %d)", blockIdx, len(bs.footer))
	}
	entry := bs.footer[blockIdx]
	bs.mu.Unlock()

	compressed := make([]byte, entry.length)
	if _, err := bs.f.ReadAt(compressed, entry.offset); err != nil {
		return nil, fmt.Errorf("vfs.ReadBlock: %w", err)
	}
	return compressed, nil
}

// Flush writes the footer table, overwriting any previous one, so the file
// remains randomly readable after a clean close.
func (bs *BlockStore) Flush() error {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	info, err := bs.f.Stat()
	if err != nil {
		return fmt.Errorf("vfs.Flush: %w", err)
	}
	footerStart := info.Size()

	buf := make([]byte, 4, 4+16*len(bs.footer)+8)
	binary.LittleEndian.PutUint32(buf, uint32(len(bs.footer)))
	for _, e := range bs.footer {
		var pair [16]byte
		binary.LittleEndian.PutUint64(pair[:8], uint64(e.offset))
		binary.LittleEndian.PutUint64(pair[8:], uint64(e.length))
		buf = append(buf, pair[:]...)
	}
	var tail [8]byte
	binary.LittleEndian.PutUint64(tail[:], uint64(footerStart))
	buf = append(buf, tail[:]...)

	if _, err := bs.f.WriteAt(buf, footerStart); err != nil {
		return fmt.Errorf("vfs.Flush: %w", err)
	}
	return bs.f.Sync()
}

// Close flushes the footer and releases the underlying file descriptor.
func (bs *BlockStore) Close() error {
	if err := bs.Flush(); err != nil {
		return err
	}
	return bs.f.Close()
}

// BlockCount reports how many outer blocks have been written so far.
func (bs *BlockStore) BlockCount() int {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	return len(bs.footer)
}

// Rehydrate decompresses every block and writes the reconstructed plain
// file bytes into a new temporary file under dir, returning its path.
// Blocks were compressed from a contiguous run of pages in original file
// order, so concatenating their decoded bytes in block order reproduces the
// original file exactly. Decoding itself has no cross-block dependency, so
// Rehydrate fans every block out across the worker pool with RunAll and
// writes the results to the temp file in order afterward. The host engine
// opens this temp file directly, so it never sees the compressed
// container's magic header or block layout.
func (bs *BlockStore) Rehydrate(dir string) (string, error) {
	bs.mu.Lock()
	blocks := len(bs.footer)
	bs.mu.Unlock()

	decoded := make([][]byte, blocks)
	err := bs.pool.RunAll(context.Background(), blocks, func(i int) error {
		compressed, err := bs.readCompressedBlock(i)
		if err != nil {
			return err
		}
		blob, err := bs.codec.Decode(nil, compressed)
		if err != nil {
			return err
		}
		decoded[i] = blob
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("vfs.Rehydrate: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "gsqlite-rehydrate-*.db")
	if err != nil {
		return "", fmt.Errorf("vfs.Rehydrate: %w", err)
	}
	defer tmp.Close()
	for _, blob := range decoded {
		if _, err := tmp.Write(blob); err != nil {
			os.Remove(tmp.Name())
			return "", fmt.Errorf("vfs.Rehydrate: %w", err)
		}
	}
	return tmp.Name(), nil
}

// Dehydrate reads the rehydrated plain file back into compressed outer
// blocks, replacing the container's prior contents, and flushes the updated
// footer. Called on Close so writes made through the engine's rehydrated
// copy are committed back into the compressed file.
func (bs *BlockStore) Dehydrate(tempPath string) error {
	data, err := os.ReadFile(tempPath)
	if err != nil {
		return fmt.Errorf("vfs.Dehydrate: %w", err)
	}

	bs.mu.Lock()
	bs.footer = nil
	truncErr := bs.f.Truncate(int64(len(magic)))
	bs.mu.Unlock()
	if truncErr != nil {
		return fmt.Errorf("vfs.Dehydrate: %w", truncErr)
	}

	blockSize := bs.pagesPerBlk * bs.innerKiB * 1024
	if blockSize < 1 {
		blockSize = len(data)
	}
	for off := 0; off < len(data); off += blockSize {
		end := off + blockSize
		if end > len(data) {
			end = len(data)
		}
		if err := bs.WritePages(splitPages(data[off:end], bs.innerKiB*1024)); err != nil {
			return fmt.Errorf("vfs.Dehydrate: %w", err)
		}
	}
	return bs.Flush()
}

// splitPages slices blob into pageSize-sized chunks, the last one possibly
// shorter.
func splitPages(blob []byte, pageSize int) [][]byte {
	if pageSize <= 0 || len(blob) == 0 {
		return [][]byte{blob}
	}
	pages := make([][]byte, 0, (len(blob)+pageSize-1)/pageSize)
	for off := 0; off < len(blob); off += pageSize {
		end := off + pageSize
		if end > len(blob) {
			end = len(blob)
		}
		pages = append(pages, blob[off:end])
	}
	return pages
}

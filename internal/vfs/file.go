package vfs

import (
	"strings"
	"syscall"
	"time"

	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/hanwen/go-fuse/v2/fuse/nodefs"
)

// queryFile is the writable nodefs.File backing a /sql/queries/*.sql entry.
// Writes accumulate into the owning FS's virtualFiles map; a write whose
// trimmed content ends in ';' triggers the query executor immediately,
// within the write itself (§4.1.3, §4.6).
type queryFile struct {
	nodefs.File

	fs   *FS
	path string
}

func newQueryFile(fs *FS, path string) nodefs.File {
	return &queryFile{File: nodefs.NewDefaultFile(), fs: fs, path: path}
}

func (f *queryFile) Read(dest []byte, off int64) (fuse.ReadResult, fuse.Status) {
	f.fs.mu.Lock()
	content := f.fs.virtualFiles[f.path]
	f.fs.mu.Unlock()

	if off >= int64(len(content)) {
		return fuse.ReadResultData(nil), fuse.OK
	}
	end := off + int64(len(dest))
	if end > int64(len(content)) {
		end = int64(len(content))
	}
	return fuse.ReadResultData([]byte(content[off:end])), fuse.OK
}

// Write implements the merge/pad semantics of §4.1.3: an offset-0 write
// replaces the entire content; any other write overlays data onto the
// existing content, zero-padding any gap up to off first. If the resulting
// content, stripped of whitespace, ends with ';', the query executor runs
// before Write returns (§4.6) — a write-then-read on the same open handle,
// with no intervening flush, must already observe the result.
func (f *queryFile) Write(data []byte, off int64) (uint32, fuse.Status) {
	f.fs.mu.Lock()

	content := f.fs.virtualFiles[f.path]

	if off == 0 {
		content = string(data)
	} else {
		if int(off) > len(content) {
			content += strings.Repeat("\x00", int(off)-len(content))
		}
		end := int(off) + len(data)
		if end > len(content) {
			content += strings.Repeat("\x00", end-len(content))
		}
		content = content[:off] + string(data) + content[int(off)+len(data):]
	}

	f.fs.virtualFiles[f.path] = content
	f.fs.bump()
	f.fs.mu.Unlock()

	if strings.HasSuffix(strings.TrimSpace(content), ";") {
		f.fs.executeQueryFile(f.path, content)
	}

	return uint32(len(data)), fuse.OK
}

func (f *queryFile) GetAttr(out *fuse.Attr) fuse.Status {
	f.fs.mu.Lock()
	content := f.fs.virtualFiles[f.path]
	f.fs.mu.Unlock()

	now := time.Now()
	out.Mode = syscall.S_IFREG | 0o644
	out.Size = uint64(len(content))
	out.Atime = uint64(now.Unix())
	out.Mtime = uint64(f.fs.backend.CreatedAt().Unix())
	out.Ctime = uint64(f.fs.backend.CreatedAt().Unix())
	return fuse.OK
}

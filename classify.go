// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package archivenav

import (
	"os"

	"github.com/gabriel-vasile/mimetype"
)

// mimeHeaderLength is the number of header bytes used for MIME sniffing.
const mimeHeaderLength = 3072

// mimeCodecs maps MIME types of container formats to codec ids. The MIME ancestry of
// a detected type is walked, so formats based on zip (docx, jar, ...) resolve to zip.
var mimeCodecs = []struct {
	mime    string
	codecID string
}{
	{"application/zip", fileExtensionZip},
	{"application/x-tar", fileExtensionTar},
	{"application/x-7z-compressed", fileExtension7zip},
	{"application/x-rar-compressed", fileExtensionRar},
	{"application/gzip", fileExtensionGZip},
	{"application/x-bzip2", fileExtensionBzip2},
	{"application/x-xz", fileExtensionXz},
	{"application/zstd", fileExtensionZstd},
}

// Classification is the result of classifying a path.
type Classification struct {
	// Kind is the kind of the path
	Kind Kind

	// CodecID is the id of the codec, if Kind is KindArchive
	CodecID string
}

// Classifier decides whether a path is a directory, an ordinary file or a
// supported archive.
type Classifier struct {
	registry *Registry
}

// NewClassifier creates a classifier for the codecs in registry.
func NewClassifier(registry *Registry) *Classifier {
	return &Classifier{registry: registry}
}

// Classify classifies the existing path. Archives are detected by extension first.
// If the extension is unknown, the header is sniffed for container signatures and,
// as a last resort, for the MIME type. Unmatched files are ordinary files.
func (c *Classifier) Classify(path string) (Classification, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return Classification{}, pathError(path, err)
	}
	if stat.IsDir() {
		return Classification{Kind: KindDirectory}, nil
	}

	// extension match
	if cl := c.ClassifyName(stat.Name()); cl.Kind == KindArchive {
		return cl, nil
	}

	// sniff header
	f, err := os.Open(path)
	if err != nil {
		return Classification{}, pathError(path, err)
	}
	defer f.Close()

	headerSize := max(c.registry.MaxHeaderLength(), mimeHeaderLength)
	header, err := readHeader(f, headerSize)
	if err != nil {
		return Classification{}, pathError(path, err)
	}
	return c.ClassifyHeader(header), nil
}

// ClassifyName classifies a file name by its extension only.
func (c *Classifier) ClassifyName(name string) Classification {
	if codec, ok := c.registry.ForName(name); ok {
		return Classification{Kind: KindArchive, CodecID: codec.ID()}
	}
	return Classification{Kind: KindFile}
}

// ClassifyHeader classifies the first bytes of a file by container signatures
// and MIME type.
func (c *Classifier) ClassifyHeader(header []byte) Classification {
	if codec, ok := c.registry.Sniff(header); ok {
		return Classification{Kind: KindArchive, CodecID: codec.ID()}
	}

	// walk the MIME ancestry
	for m := mimetype.Detect(header); m != nil; m = m.Parent() {
		for _, mc := range mimeCodecs {
			if !m.Is(mc.mime) {
				continue
			}
			if _, ok := c.registry.Lookup(mc.codecID); ok {
				return Classification{Kind: KindArchive, CodecID: mc.codecID}
			}
		}
	}

	return Classification{Kind: KindFile}
}

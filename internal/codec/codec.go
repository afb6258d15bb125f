// SPDX-License-Identifier: MPL-2.0

package codec

import (
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/invowk/modpak/pkg/ini"
	"github.com/invowk/modpak/pkg/semmerge"
	"github.com/invowk/modpak/pkg/structcfg"
)

var (
	// ErrNoCodec is returned when no codec handles a file extension.
	ErrNoCodec = errors.New("no codec for file type")
	// ErrDecode is wrapped around failures to read one of the merge inputs.
	ErrDecode = errors.New("decode merge input")
	// ErrEncode is wrapped around failures to write the merged document.
	ErrEncode = errors.New("encode merge result")
)

type (
	// Codec merges three versions of a file of one format.
	Codec interface {
		// Name identifies the format in logs and reports.
		Name() string
		// Extensions lists the lower-case file extensions, dot included.
		Extensions() []string
		// Merge combines ours and theirs relative to base.
		Merge(base, ours, theirs []byte) (*Outcome, error)
	}

	// Outcome is the merged file and what went into it.
	Outcome struct {
		Data []byte
		// Ours and Theirs count the operations contributed by each side.
		Ours, Theirs int
	}

	// Registry maps file extensions to codecs.
	Registry struct {
		byExt map[string]Codec
	}

	// versions holds the three parsed inputs of a merge.
	versions[T any] struct {
		base, ours, theirs T
	}
)

// NewRegistry creates a registry holding codecs. A later codec replaces an
// earlier one registered for the same extension.
func NewRegistry(codecs ...Codec) *Registry {
	r := &Registry{byExt: make(map[string]Codec)}
	for _, c := range codecs {
		r.Register(c)
	}
	return r
}

// DefaultRegistry returns the struct config, INI and JSON codecs.
func DefaultRegistry() *Registry {
	return NewRegistry(StructConfig{}, INI{}, JSON{})
}

// Register adds c for each of its extensions.
func (r *Registry) Register(c Codec) {
	for _, ext := range c.Extensions() {
		r.byExt[strings.ToLower(ext)] = c
	}
}

// Lookup returns the codec for the extension of name.
func (r *Registry) Lookup(name string) (Codec, bool) {
	c, ok := r.byExt[strings.ToLower(path.Ext(name))]
	return c, ok
}

// Extensions returns the registered extensions, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

// MergeFile merges three versions of the file at name with the codec for
// its extension.
func (r *Registry) MergeFile(name string, base, ours, theirs []byte) (*Outcome, error) {
	c, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoCodec, name)
	}
	out, err := c.Merge(base, ours, theirs)
	if err != nil {
		return nil, fmt.Errorf("%s merge of %s: %w", c.Name(), name, err)
	}
	return out, nil
}

// parseAll parses the three inputs with parse.
func parseAll[T any](parse func([]byte) (T, error), base, ours, theirs []byte) (*versions[T], error) {
	var v versions[T]
	var err error
	if v.base, err = parse(base); err != nil {
		return nil, fmt.Errorf("%w: base: %w", ErrDecode, err)
	}
	if v.ours, err = parse(ours); err != nil {
		return nil, fmt.Errorf("%w: ours: %w", ErrDecode, err)
	}
	if v.theirs, err = parse(theirs); err != nil {
		return nil, fmt.Errorf("%w: theirs: %w", ErrDecode, err)
	}
	return &v, nil
}

func outcome(data []byte, res *semmerge.Result) *Outcome {
	return &Outcome{Data: data, Ours: len(res.Ours), Theirs: len(res.Theirs)}
}

// StructConfig merges struct config files.
type StructConfig struct{}

// Name implements Codec.
func (StructConfig) Name() string { return "struct-config" }

// Extensions implements Codec.
func (StructConfig) Extensions() []string { return []string{".cfg"} }

// Merge implements Codec.
func (StructConfig) Merge(base, ours, theirs []byte) (*Outcome, error) {
	docs, err := parseAll(structcfg.Parse, base, ours, theirs)
	if err != nil {
		return nil, err
	}
	res, err := semmerge.Merge3(docs.base.ToCanonical(), docs.ours.ToCanonical(), docs.theirs.ToCanonical())
	if err != nil {
		return nil, err
	}
	merged, err := structcfg.FromCanonical(res.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	merged.BOM = docs.ours.BOM
	return outcome(merged.Bytes(), res), nil
}

// INI merges INI files.
type INI struct{}

// Name implements Codec.
func (INI) Name() string { return "ini" }

// Extensions implements Codec.
func (INI) Extensions() []string { return []string{".ini"} }

// Merge implements Codec. Section and key order follows ours, then theirs.
func (INI) Merge(base, ours, theirs []byte) (*Outcome, error) {
	docs, err := parseAll(ini.Parse, base, ours, theirs)
	if err != nil {
		return nil, err
	}
	res, err := semmerge.Merge3(docs.base.ToCanonical(), docs.ours.ToCanonical(), docs.theirs.ToCanonical())
	if err != nil {
		return nil, err
	}
	merged, err := ini.FromCanonical(res.Value, docs.ours, docs.theirs, docs.base)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return outcome(merged.Bytes(), res), nil
}

// JSON merges JSON documents. The merged document is written with two-space
// indentation and sorted object keys.
type JSON struct{}

// Name implements Codec.
func (JSON) Name() string { return "json" }

// Extensions implements Codec.
func (JSON) Extensions() []string { return []string{".json"} }

// Merge implements Codec.
func (JSON) Merge(base, ours, theirs []byte) (*Outcome, error) {
	docs, err := parseAll(semmerge.Decode, base, ours, theirs)
	if err != nil {
		return nil, err
	}
	res, err := semmerge.Merge3(docs.base, docs.ours, docs.theirs)
	if err != nil {
		return nil, err
	}
	data, err := semmerge.Encode(res.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return outcome(data, res), nil
}

// PrettyJSON rewrites a JSON document with two-space indentation.
func PrettyJSON(data []byte) ([]byte, error) {
	v, err := semmerge.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return semmerge.Encode(v)
}

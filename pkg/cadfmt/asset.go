package cadfmt

import (
	"errors"
	"fmt"
	"os"

	"github.com/Masterminds/semver/v3"

	"github.com/Faultbox/midgard-cad/pkg/binrec"
)

// Asset container errors.
var (
	ErrInvalidMagic       = errors.New("invalid asset magic: expected 'ZCAD'")
	ErrUnsupportedVersion = errors.New("unsupported asset format version")
	ErrTruncatedAsset     = errors.New("truncated asset data")
)

const assetMagic = "ZCAD"

// minSupportedVersion is the oldest format the decoders understand.
var minSupportedVersion = semver.MustParse("0.0.10")

// Asset is a CAD asset container: the format version plus the raw library
// buffers. Buffers are kept as-is so they can be handed to the GPU.
type Asset struct {
	Name     string
	Version  *semver.Version
	Curves   []byte
	Surfaces []byte
	TrimSets []byte // optional
	Bodies   []byte
	BodyTOC  []byte
}

// ParseAsset parses an asset container from raw bytes.
func ParseAsset(data []byte) (*Asset, error) {
	if len(data) < 7 {
		return nil, ErrTruncatedAsset
	}
	if string(data[0:4]) != assetMagic {
		return nil, ErrInvalidMagic
	}

	r := binrec.NewReader(data)
	r.SetPos(4)
	version := NewVersion(uint64(r.U8()), uint64(r.U8()), uint64(r.U8()))
	if version.LessThan(minSupportedVersion) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedVersion, version)
	}

	a := &Asset{Version: version}
	sections := []*[]byte{&a.Curves, &a.Surfaces, &a.TrimSets, &a.Bodies, &a.BodyTOC}
	for _, s := range sections {
		r.Align(4)
		*s = r.Bytes()
	}
	r.Align(4)
	a.Name = r.Text()

	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncatedAsset, err)
	}
	return a, nil
}

// ParseAssetFile parses an asset container from disk.
func ParseAssetFile(path string) (*Asset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading asset file: %w", err)
	}
	return ParseAsset(data)
}

// Encode serialises the container.
func (a *Asset) Encode() []byte {
	w := binrec.NewWriter()
	for i := 0; i < len(assetMagic); i++ {
		w.U8(assetMagic[i])
	}
	v := a.Version
	if v == nil {
		v = CurrentVersion
	}
	w.U8(uint8(v.Major()))
	w.U8(uint8(v.Minor()))
	w.U8(uint8(v.Patch()))
	for _, s := range [][]byte{a.Curves, a.Surfaces, a.TrimSets, a.Bodies, a.BodyTOC} {
		w.Align(4)
		w.ByteArray(s)
	}
	w.Align(4)
	w.Text(a.Name)
	return w.Bytes()
}

// WriteFile writes the encoded container to path.
func (a *Asset) WriteFile(path string) error {
	return os.WriteFile(path, a.Encode(), 0644)
}

// Libraries bundles the opened libraries of one asset. They are read-only
// views over the asset buffers and safe for concurrent readers.
type Libraries struct {
	Version  *semver.Version
	Curves   *CurveLibrary
	Surfaces *SurfaceLibrary
	TrimSets *TrimSetLibrary // nil when the asset has no trim sets
	Bodies   *BodyLibrary
}

// Open constructs the libraries for the asset's buffers.
func (a *Asset) Open() (*Libraries, error) {
	libs := &Libraries{Version: a.Version}
	var err error
	if libs.Curves, err = NewCurveLibrary(a.Curves, a.Version); err != nil {
		return nil, err
	}
	if libs.Surfaces, err = NewSurfaceLibrary(a.Surfaces, a.Version); err != nil {
		return nil, err
	}
	if len(a.TrimSets) > 0 {
		if libs.TrimSets, err = NewTrimSetLibrary(a.TrimSets, a.Version); err != nil {
			return nil, err
		}
	}
	if libs.Bodies, err = NewBodyLibrary(a.Bodies, a.BodyTOC, a.Version); err != nil {
		return nil, err
	}
	return libs, nil
}

// Builder assembles an Asset from decoded records.
type Builder struct {
	Name     string
	Curves   []Curve
	Surfaces []Surface
	TrimSets []TrimSet
	Bodies   []Body
}

// Build encodes the records with the given format version.
func (b *Builder) Build(version *semver.Version) *Asset {
	if version == nil {
		version = CurrentVersion
	}
	enc := NewEncoder(version)
	a := &Asset{
		Name:     b.Name,
		Version:  version,
		Curves:   enc.Curves(b.Curves),
		Surfaces: enc.Surfaces(b.Surfaces),
	}
	if len(b.TrimSets) > 0 {
		a.TrimSets = enc.TrimSets(b.TrimSets)
	}
	a.Bodies, a.BodyTOC = enc.Bodies(b.Bodies)
	return a
}

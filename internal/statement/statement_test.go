package statement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register(&RaiffeisenHandler{})
	h := r.Get("raiffeisen")
	require.NotNil(t, h)
	assert.Equal(t, "raiffeisen", h.Format())
}

func TestRegistry_CaseInsensitive(t *testing.T) {
	r := NewRegistry()
	r.Register(&RaiffeisenHandler{})
	assert.NotNil(t, r.Get("Raiffeisen"))
	assert.NotNil(t, r.Get("RAIFFEISEN"))
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := NewRegistry()
	assert.Nil(t, r.Get("nonexistent"))
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.Register(&RaiffeisenHandler{})
	assert.Panics(t, func() { r.Register(&RaiffeisenHandler{}) })
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.NotNil(t, r.Get("alfabank"))
	assert.NotNil(t, r.Get("raiffeisen"))
	assert.NotNil(t, r.Get("sberbank"))
	assert.Equal(t, []string{"alfabank", "raiffeisen", "sberbank"}, r.Formats())
}

func TestDetect_UnsupportedFormat(t *testing.T) {
	r := DefaultRegistry()
	_, err := r.Detect([]byte("just some random text\nwith no bank signature"))
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrUnsupportedFormat, pe.Kind)
}

func TestDetect_PDFMagic(t *testing.T) {
	r := DefaultRegistry()
	h, err := r.Detect([]byte("%PDF-1.4 rest of file"))
	require.NoError(t, err)
	assert.Equal(t, "sberbank", h.Format())
}

func TestDetect_ZipMagic(t *testing.T) {
	r := DefaultRegistry()
	h, err := r.Detect([]byte("PK\x03\x04workbook bytes"))
	require.NoError(t, err)
	assert.Equal(t, "alfabank", h.Format())
}

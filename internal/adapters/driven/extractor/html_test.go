package extractor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
)

func TestHTML_Extract(t *testing.T) {
	doc := `<html><head><title>Pump</title><style>p{color:red}</style></head>
<body>
<h1>Installing the pump</h1>
<script>alert("x")</script>
<p>Mount it on a <b>level</b> base &amp; bolt it down.</p>
<!-- hidden -->
<ul><li>Check the inlet</li><li>Prime   the pump</li></ul>
</body></html>`

	pages, err := NewHTML().Extract(context.Background(), "pump.html", []byte(doc))

	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t,
		"Installing the pump\n\nMount it on a level base & bolt it down.\n\nCheck the inlet\n\nPrime the pump",
		pages[0])
}

func TestHTML_InvalidUTF8(t *testing.T) {
	_, err := NewHTML().Extract(context.Background(), "bad.htm", []byte{0xff, 0xfe})
	assert.ErrorIs(t, err, domain.ErrIO)
}

func TestHTML_Metadata(t *testing.T) {
	e := NewHTML()
	assert.Equal(t, "html", e.Name())
	assert.Equal(t, []string{".html", ".htm"}, e.Extensions())
}

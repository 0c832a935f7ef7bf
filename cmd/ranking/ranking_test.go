package ranking

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twdrugfinder/drugfinder/internal/directory"
)

func TestPrint(t *testing.T) {
	entries := []directory.RankEntry{
		{Drug: "Ritalin", City: "臺北市", Count: 3},
		{Drug: "Concerta", City: "高雄市", Count: 1},
	}

	var buf bytes.Buffer
	require.NoError(t, Print(&buf, entries, false))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"#", "DRUG", "WISHES"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"1", "Ritalin", "3"}, strings.Fields(lines[1]))

	buf.Reset()
	require.NoError(t, Print(&buf, entries, true))
	lines = strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{"2", "Concerta", "高雄市", "1"}, strings.Fields(lines[2]))
}

func TestPrintEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Print(&buf, nil, false))
	assert.Contains(t, buf.String(), "還沒有人許願")
}

package cloudinary

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestBuildPublicID(t *testing.T) {
	at := time.Unix(1700000000, 0)

	require.Equal(t, "algebra-homework-1700000000", buildPublicID("algebra homework.pdf", at))
	require.Equal(t, "report-1700000000", buildPublicID("../../report.txt", at))
	require.Equal(t, "submission-1700000000", buildPublicID("???.zip", at))
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(Config{CloudName: "demo"}, zerolog.Nop())
	require.Error(t, err)
}

func TestNewDefaultsFolder(t *testing.T) {
	store, err := New(Config{CloudName: "demo", APIKey: "key", APISecret: "secret"}, zerolog.Nop())
	require.NoError(t, err)
	require.Equal(t, defaultFolder, store.folder)
}

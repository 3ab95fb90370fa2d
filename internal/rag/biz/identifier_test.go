package biz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/sentinel-docqa/pkg/errors"
)

func TestDocumentID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"plain", "report.pdf", "report", false},
		{"with directory", "/tmp/uploads/report_2024.pdf", "report_2024", false},
		{"inner dots", "a.b.pdf", "a.b", false},
		{"no suffix", "report", "", true},
		{"other extension", "report.txt", "", true},
		{"upper case suffix", "report.PDF", "", true},
		{"empty stem", ".pdf", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DocumentID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, errors.ErrBadIdentifier)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	got := BuildPrompt("alpha,beta", "what is alpha?")

	want := "You are an expert providing factually accurate answers.\n" +
		"Use only the information from the context to generate your answer.\n" +
		"If the context doesn't contain relevant information say I don't know as context doesn't have much info.\n" +
		"Context: alpha,beta Question: what is alpha? Answer(only use the context for your answer)"
	assert.Equal(t, want, got)
}

func TestBuildPromptDoesNotExpandPlaceholdersInContext(t *testing.T) {
	got := BuildPrompt("{user_query}", "q")
	assert.Contains(t, got, "Context: {user_query} Question: q")
}

package course

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestions_Scan(t *testing.T) {
	valid := `[{"question":"2+2?","options":["3","4"],"answer":1}]`

	tests := []struct {
		name    string
		src     interface{}
		want    Questions
		wantErr bool
	}{
		{name: "valid row", src: []byte(valid), want: Questions{{Prompt: "2+2?", Options: []string{"3", "4"}, Correct: 1}}},
		{name: "string source", src: valid, want: Questions{{Prompt: "2+2?", Options: []string{"3", "4"}, Correct: 1}}},
		{name: "nil is empty", src: nil, want: Questions{}},
		{name: "empty set", src: []byte(`[]`), want: Questions{}},
		{name: "answer 0 is not missing", src: []byte(`[{"question":"q","options":["a","b"],"answer":0}]`),
			want: Questions{{Prompt: "q", Options: []string{"a", "b"}, Correct: 0}}},
		{name: "not json", src: []byte(`lol`), wantErr: true},
		{name: "missing question text", src: []byte(`[{"options":["a","b"],"answer":0}]`), wantErr: true},
		{name: "missing answer", src: []byte(`[{"question":"q","options":["a","b"]}]`), wantErr: true},
		{name: "answer out of range", src: []byte(`[{"question":"q","options":["a","b"],"answer":2}]`), wantErr: true},
		{name: "negative answer", src: []byte(`[{"question":"q","options":["a","b"],"answer":-1}]`), wantErr: true},
		{name: "single option", src: []byte(`[{"question":"q","options":["a"],"answer":0}]`), wantErr: true},
		{name: "unsupported source type", src: 42, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var qs Questions
			err := qs.Scan(tt.src)
			if tt.wantErr {
				require.Error(t, err)
				if tt.src != nil && tt.name != "not json" && tt.name != "unsupported source type" {
					assert.Equal(t, ErrMalformedQuiz, errors.Cause(err))
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, qs)
		})
	}
}

func TestQuestions_Value(t *testing.T) {
	var qs Questions
	val, err := qs.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(val.([]byte)))

	qs = Questions{{Prompt: "2+2?", Options: []string{"3", "4"}, Correct: 1}}
	val, err = qs.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `[{"question":"2+2?","options":["3","4"],"answer":1}]`, string(val.([]byte)))
}

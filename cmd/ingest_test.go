package cmd

import (
	"testing"

	"github.com/askfolio/askfolio/internal/source"
)

func TestResolveCategories(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []source.Category
		wantErr bool
	}{
		{
			name: "no args covers every ingestable category",
			args: nil,
			want: []source.Category{
				source.CategoryGitHub,
				source.CategoryPortfolio,
				source.CategoryBio,
				source.CategoryResume,
			},
		},
		{
			name: "explicit categories",
			args: []string{"github", "bio"},
			want: []source.Category{source.CategoryGitHub, source.CategoryBio},
		},
		{
			name:    "linkedin rejected",
			args:    []string{"linkedin"},
			wantErr: true,
		},
		{
			name:    "unknown category rejected",
			args:    []string{"twitter"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveCategories(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("resolveCategories: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("category[%d] = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

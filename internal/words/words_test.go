package words

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSkipsBlankLinesAndTrims(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.txt")

	content := "apple\n\n  banana  \n\t\ncherry"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write words file: %v", err)
	}

	list, err := Load(path)
	if err != nil {
		t.Fatalf("load should succeed, got: %v", err)
	}

	if list.Len() != 3 {
		t.Fatalf("want 3 words, got %d", list.Len())
	}

	allowed := map[string]bool{"apple": true, "banana": true, "cherry": true}
	for i := 0; i < 20; i++ {
		word, err := list.ChooseWord()
		if err != nil {
			t.Fatalf("choose should succeed, got: %v", err)
		}
		if !allowed[word] {
			t.Fatalf("chosen word %q is not in the list", word)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.txt")); err == nil {
		t.Fatalf("loading a missing file must fail")
	}
}

func TestChooseWordEmptyList(t *testing.T) {
	list := NewList()

	if _, err := list.ChooseWord(); !errors.Is(err, ErrNoWords) {
		t.Fatalf("want ErrNoWords, got: %v", err)
	}
}

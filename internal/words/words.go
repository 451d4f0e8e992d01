package words

import (
	"bufio"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
)

// 词库为空，无法选词
var ErrNoWords = errors.New("词库为空")

// List 是加载到内存的词库
type List struct {
	entries []string
}

// Load 读取按行组织的词库文件，忽略空行和首尾空白
func Load(path string) (*List, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开词库文件失败: %w", err)
	}
	defer f.Close()

	var entries []string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word == "" {
			continue
		}

		entries = append(entries, word)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("读取词库文件失败: %w", err)
	}

	return &List{entries: entries}, nil
}

// NewList 直接由给定的词构建词库，主要供测试使用
func NewList(entries ...string) *List {
	return &List{entries: entries}
}

// ChooseWord 随机返回一个词，词库为空时返回 ErrNoWords
func (l *List) ChooseWord() (string, error) {
	if len(l.entries) == 0 {
		return "", ErrNoWords
	}

	return l.entries[rand.IntN(len(l.entries))], nil
}

func (l *List) Len() int {
	return len(l.entries)
}

package gemini

import (
	"fmt"
	"strings"

	"github.com/kirillkom/batikgram/internal/core/domain"
)

const maxQueryRunes = 2000

const systemInstruction = `Kamu adalah asisten BatikGram yang menjawab pertanyaan seputar batik Indonesia:
motif, makna, sejarah, daerah asal, warna dan cara membuat batik.
Jawab singkat dalam bahasa yang sama dengan pertanyaan pengguna.
Jika pertanyaan tidak berhubungan dengan batik, katakan dengan sopan bahwa kamu hanya bisa membantu soal batik.`

func buildChatPrompt(query string, pattern *domain.PatternDescriptor) string {
	question := strings.TrimSpace(query)
	if runes := []rune(question); len(runes) > maxQueryRunes {
		question = string(runes[:maxQueryRunes])
	}

	if pattern == nil {
		return fmt.Sprintf("Pertanyaan:\n%s\n", question)
	}

	var note strings.Builder
	note.WriteString("Motif yang sedang dipilih pengguna: ")
	note.WriteString(pattern.Name)
	if pattern.ID != "" {
		fmt.Fprintf(&note, " (id=%s)", pattern.ID)
	}
	if desc := strings.TrimSpace(pattern.Description); desc != "" {
		note.WriteString("\nKeterangan: ")
		note.WriteString(desc)
	}

	return fmt.Sprintf(`Gunakan konteks motif berikut bila relevan dengan pertanyaan.

%s

Pertanyaan:
%s
`, note.String(), question)
}

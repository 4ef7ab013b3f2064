package usecase

import (
	"sort"
	"strings"
	"unicode"

	"github.com/kirillkom/batikgram/internal/core/domain"
	"github.com/kirillkom/batikgram/internal/core/ports"
)

// OutOfDomainReply is returned when no rule matches. It is fixed so that the
// same question always gets the same answer.
const OutOfDomainReply = "Maaf, saya belum memahami pertanyaan Anda. Coba tanyakan tentang motif batik tertentu " +
	"(contoh: 'Sekar Kemuning'), sejarah batik, cara membuat batik, makna warna batik, atau batik dari daerah tertentu."

const (
	greetingReply = "Halo! Selamat datang di BatikGram. Saya siap membantu Anda mengenal batik Indonesia. " +
		"Ada yang ingin Anda ketahui?"
	aboutBatikReply = "Batik adalah seni tekstil tradisional Indonesia yang dibuat dengan teknik perintang warna " +
		"menggunakan lilin malam. UNESCO mengakui batik sebagai Warisan Budaya Takbenda pada tahun 2009, " +
		"dan setiap motifnya membawa makna filosofis."
	motifReply = "Batik Indonesia memiliki ratusan motif tradisional, misalnya Kawung (kesucian), Parang (keteguhan), " +
		"Ceplok (keseimbangan alam), dan Truntum (cinta yang tumbuh kembali). Sebut nama motif untuk penjelasan lengkap."
	historyReply = "Batik dikenal di Jawa sejak berabad-abad lalu, berkembang di lingkungan keraton, lalu menyebar " +
		"ke seluruh Nusantara. Batik cap muncul sekitar tahun 1840 dan UNESCO mengakui batik pada tahun 2009."
	howToReply = "Tahapan membuat batik tulis: nyorek (menggambar pola), nglowong (menutup pola dengan lilin), " +
		"medel (pewarnaan pertama), ngerok (mengerok lilin), mbironi (menutup bagian berwarna), " +
		"nyoga (pewarnaan kedua), dan nglorod (meluruhkan seluruh lilin)."
	regionReply = "Setiap daerah punya ciri khas: Yogyakarta dan Solo dengan batik keraton, Pekalongan dengan " +
		"batik pesisir berwarna cerah, Cirebon dengan Mega Mendung, dan Madura dengan warna kontras."
	colourReply = "Warna dalam batik bermakna: biru untuk ketenangan, coklat sogan untuk kesederhanaan, " +
		"kuning untuk keagungan, merah untuk keberanian, hitam untuk kebijaksanaan, dan putih untuk kesucian."
	meaningReply = "Motif batik bukan sekadar hiasan. Banyak motif melambangkan doa dan harapan, " +
		"seperti keseimbangan hidup, keteguhan hati, atau kesucian."
)

// LocalResponder answers chat queries from keyword rules and the static
// motif knowledge. It never fails and never blocks.
type LocalResponder struct {
	motifs []domain.PatternDescriptor
	byID   map[string]domain.PatternDescriptor
}

func NewLocalResponder(knowledge ports.PatternKnowledge) *LocalResponder {
	r := &LocalResponder{byID: map[string]domain.PatternDescriptor{}}
	if knowledge == nil {
		return r
	}
	r.motifs = append(r.motifs, knowledge.Motifs()...)
	// Longer names first so "Sekar Jagung" wins over a shorter prefix.
	sort.SliceStable(r.motifs, func(i, j int) bool {
		return len(r.motifs[i].Name) > len(r.motifs[j].Name)
	})
	for _, m := range r.motifs {
		r.byID[m.ID] = m
	}
	return r
}

func (r *LocalResponder) Reply(text, patternID string) string {
	normalized := normalizeChatText(text)
	tokens := tokenSet(normalized)

	if motif, ok := r.mentionedMotif(normalized); ok {
		return describeMotif(motif)
	}

	current, hasCurrent := r.byID[strings.TrimSpace(patternID)]

	switch {
	case tokens.any("halo", "hai", "hello", "hi"):
		return greetingReply
	case hasPhrase(normalized, "apa itu", "what is"):
		if hasCurrent && !tokens.any("batik") {
			return describeMotif(current)
		}
		return aboutBatikReply
	case tokens.any("batik") && tokens.any("apa"):
		return aboutBatikReply
	case tokens.any("makna", "filosofi", "arti", "meaning"):
		if hasCurrent {
			return describeMotif(current)
		}
		return meaningReply
	case tokens.any("motif", "pattern", "corak"):
		return motifReply
	case tokens.any("sejarah", "history"):
		return historyReply
	case tokens.any("cara") && tokens.anyPrefix("buat", "membuat", "dibuat"):
		return howToReply
	case tokens.any("daerah", "asal", "region"):
		return regionReply
	case tokens.any("warna", "color", "colour"):
		return colourReply
	}
	return OutOfDomainReply
}

func (r *LocalResponder) mentionedMotif(normalized string) (domain.PatternDescriptor, bool) {
	padded := " " + normalized + " "
	for _, m := range r.motifs {
		name := " " + normalizeChatText(m.Name) + " "
		idAsWords := " " + normalizeChatText(strings.ReplaceAll(m.ID, "_", " ")) + " "
		if strings.Contains(padded, name) || strings.Contains(padded, idAsWords) {
			return m, true
		}
	}
	return domain.PatternDescriptor{}, false
}

func describeMotif(m domain.PatternDescriptor) string {
	description := m.Description
	if description == "" {
		description = "Motif ini merupakan bagian dari koleksi batik BatikGram."
	}
	return m.Name + "\n\n" + description + "\n\nApakah Anda ingin mengetahui lebih lanjut tentang motif batik lainnya?"
}

func normalizeChatText(text string) string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, " ")
}

func hasPhrase(normalized string, phrases ...string) bool {
	padded := " " + normalized + " "
	for _, phrase := range phrases {
		if strings.Contains(padded, " "+phrase+" ") {
			return true
		}
	}
	return false
}

type chatTokens map[string]struct{}

func tokenSet(normalized string) chatTokens {
	out := chatTokens{}
	for _, token := range strings.Fields(normalized) {
		out[token] = struct{}{}
	}
	return out
}

func (t chatTokens) any(words ...string) bool {
	for _, w := range words {
		if _, ok := t[w]; ok {
			return true
		}
	}
	return false
}

func (t chatTokens) anyPrefix(prefixes ...string) bool {
	for token := range t {
		for _, p := range prefixes {
			if strings.HasPrefix(token, p) {
				return true
			}
		}
	}
	return false
}

package imageopt

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

var byteUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatBytes renders n in 1024-based units rounded to two decimals, with
// trailing zeros dropped: 1536 is "1.5 KB". Negative sizes keep their sign.
func FormatBytes(n int64) string {
	if n == 0 {
		return "0 Bytes"
	}
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}

	i := int(math.Floor(math.Log(float64(n)) / math.Log(1024)))
	if i >= len(byteUnits) {
		i = len(byteUnits) - 1
	}
	v := math.Round(float64(n)/math.Pow(1024, float64(i))*100) / 100

	return sign + strconv.FormatFloat(v, 'f', -1, 64) + " " + byteUnits[i]
}

// Report prints the human-readable progress of a batch. Failures go to a
// separate writer.
type Report struct {
	w    io.Writer
	errW io.Writer
}

func NewReport(w, errW io.Writer) *Report {
	return &Report{w: w, errW: errW}
}

func (r *Report) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.w, format, args...)
}

func (r *Report) errorf(format string, args ...interface{}) {
	fmt.Fprintf(r.errW, format, args...)
}

func (r *Report) Start() {
	r.printf("🖼️  Iniciando otimização de imagens...\n\n")
}

func (r *Report) MissingDir(dir string) {
	r.errorf("❌ Erro: Pasta %s não encontrada!\n", dir)
}

func (r *Report) NothingToDo() {
	r.printf("ℹ️  Nenhuma imagem encontrada para converter.\n\n")
}

func (r *Report) Found(n int) {
	r.printf("📁 Encontradas %d imagem(ns) para processar:\n\n", n)
}

func (r *Report) Skipped(job Job) {
	r.printf("⏭️  Pulando: %s (já existe %s)\n", job.Filename, job.OutputName)
}

func (r *Report) Converting(job Job) {
	r.printf("🔄 Convertendo: %s (%s)...\n", job.Filename, job.Profile)
}

func (r *Report) Converted(job Job) {
	saved := fmt.Sprintf("⚠️  Arquivo aumentou: %s", FormatBytes(-job.SavedBytes))
	if job.SavedBytes > 0 {
		saved = fmt.Sprintf("💾 Economizou: %s (%.2f%%)", FormatBytes(job.SavedBytes), job.SavedPercent)
	}
	r.printf("✅ %s → %s\n   %s → %s\n   %s\n\n",
		job.Filename, job.OutputName, FormatBytes(job.InputSize), FormatBytes(job.OutputSize), saved)
}

func (r *Report) Failed(job Job, err error) {
	r.errorf("❌ Erro ao converter %s: %v\n\n", job.Filename, err)
}

func (r *Report) Summary(sum Summary) {
	rule := strings.Repeat("=", 50)
	r.printf("%s\n📊 RESUMO DA CONVERSÃO:\n%s\n", rule, rule)
	r.printf("✅ Convertidas: %d\n", sum.Converted)
	r.printf("⏭️  Puladas: %d\n", sum.Skipped)
	r.printf("❌ Erros: %d\n", sum.Errors)
	if sum.BytesSaved > 0 {
		r.printf("💾 Total economizado: %s\n", FormatBytes(sum.BytesSaved))
	}
	r.printf("%s\n", rule)
}

package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/shaiso/tetractl/internal/config"
)

const jsonIndent = "    "

// Output управляет выводом CLI.
//
// Данные идут в stdout (json, yaml или table) либо в файл --save-to-file.
// Сообщения идут в stderr: информационные жёлтым, ошибки красным.
type Output struct {
	format string
	saveTo string
	w      io.Writer // stdout для данных
	errW   io.Writer // stderr для сообщений

	info    *color.Color
	success *color.Color
	failure *color.Color
}

// NewOutput создаёт Output. saveTo, если не пуст, перенаправляет данные в файл.
func NewOutput(format, saveTo string) *Output {
	return newOutput(format, saveTo, os.Stdout, os.Stderr)
}

func newOutput(format, saveTo string, w, errW io.Writer) *Output {
	if format == "" {
		format = config.OutputJSON
	}
	return &Output{
		format:  format,
		saveTo:  saveTo,
		w:       w,
		errW:    errW,
		info:    color.New(color.FgYellow),
		success: color.New(color.FgGreen),
		failure: color.New(color.FgRed),
	}
}

// Print выводит данные в выбранном формате или сохраняет их в файл.
// headers/rows используются только форматом table; если headers пуст,
// table выводит JSON.
func (o *Output) Print(headers []string, rows [][]string, data any) error {
	if o.saveTo != "" {
		if err := SaveJSON(o.saveTo, data); err != nil {
			return err
		}
		o.Info("Saved to " + o.saveTo)
		return nil
	}

	switch o.format {
	case config.OutputTable:
		if len(headers) > 0 {
			o.Table(headers, rows)
			return nil
		}
	case config.OutputYAML:
		return o.YAML(data)
	}
	return o.JSON(data)
}

// Table выводит данные в виде таблицы через tabwriter.
func (o *Output) Table(headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	dashes := make([]string, len(headers))
	for i, h := range headers {
		dashes[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(dashes, "\t"))

	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	tw.Flush()
}

// JSON выводит данные с отступом в 4 пробела. Порядок ключей сохраняется:
// поля структур идут в порядке объявления, сырой JSON из API как есть.
func (o *Output) JSON(v any) error {
	data, err := marshal(v)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", jsonIndent); err != nil {
		return fmt.Errorf("indent json: %w", err)
	}
	buf.WriteByte('\n')

	_, err = o.w.Write(buf.Bytes())
	return err
}

// YAML выводит данные в YAML. JSON — подмножество YAML, поэтому данные
// разбираются в yaml.Node и порядок ключей сохраняется.
func (o *Output) YAML(v any) error {
	data, err := marshal(v)
	if err != nil {
		return err
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return fmt.Errorf("convert to yaml: %w", err)
	}
	clearStyle(&node)

	enc := yaml.NewEncoder(o.w)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// clearStyle снимает flow/quoted стиль, унаследованный от JSON.
func clearStyle(n *yaml.Node) {
	if n.Kind != yaml.ScalarNode || n.Tag == "!!str" {
		n.Style = 0
	}
	for _, c := range n.Content {
		clearStyle(c)
	}
}

// Info выводит информационное сообщение в stderr.
func (o *Output) Info(msg string) {
	o.info.Fprintln(o.errW, msg)
}

// Success выводит сообщение об успехе в stderr.
func (o *Output) Success(msg string) {
	o.success.Fprintln(o.errW, msg)
}

// Error выводит сообщение об ошибке в stderr.
func (o *Output) Error(msg string) {
	o.failure.Fprintln(o.errW, "Error: "+msg)
}

// SaveJSON пишет данные в файл: ключи отсортированы, отступ 4 пробела,
// все не-ASCII символы экранированы как \uXXXX.
func SaveJSON(path string, v any) error {
	data, err := marshal(v)
	if err != nil {
		return err
	}

	// Через any: encoding/json сортирует ключи map.
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return fmt.Errorf("decode output: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", jsonIndent)
	if err := enc.Encode(generic); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}

	if err := os.WriteFile(path, escapeNonASCII(buf.Bytes()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// marshal кодирует v в JSON без HTML-экранирования. Сырой JSON
// передаётся без изменений.
func marshal(v any) ([]byte, error) {
	switch raw := v.(type) {
	case json.RawMessage:
		if !json.Valid(raw) {
			return nil, fmt.Errorf("invalid json in output")
		}
		return raw, nil
	case []byte:
		return marshal(json.RawMessage(raw))
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode output: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// escapeNonASCII заменяет не-ASCII руны на \uXXXX (суррогатные пары
// для рун вне BMP). В JSON такие руны встречаются только внутри строк.
func escapeNonASCII(data []byte) []byte {
	var out bytes.Buffer
	out.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		data = data[size:]

		switch {
		case r < utf8.RuneSelf:
			out.WriteRune(r)
		case r > 0xFFFF:
			r1, r2 := utf16.EncodeRune(r)
			fmt.Fprintf(&out, `\u%04x\u%04x`, r1, r2)
		default:
			fmt.Fprintf(&out, `\u%04x`, r)
		}
	}
	return out.Bytes()
}

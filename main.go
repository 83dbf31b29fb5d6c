// Proposal exporter CLI - renders proposals to email HTML and .eml files
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/joeblew999/plat-proposal/pkg/export"
	"github.com/joeblew999/plat-proposal/pkg/mail"
	"github.com/joeblew999/plat-proposal/pkg/preview"
	"github.com/joeblew999/plat-proposal/pkg/proposal"
	"github.com/joeblew999/plat-proposal/pkg/snapshot"
)

const version = "v0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "export":
		exportCmd(os.Args[2:])
	case "preview":
		previewCmd(os.Args[2:])
	case "snapshot":
		snapshotCmd(os.Args[2:])
	case "validate":
		validateCmd(os.Args[2:])
	case "drafts":
		draftsCmd(os.Args[2:])
	case "assets":
		assetsCmd(os.Args[2:])
	case "version":
		fmt.Println("proposal " + version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Proposal - Email export CLI

Usage:
  proposal <command> [options]

Commands:
  export     Export a proposal as email HTML and/or an .eml message
  preview    Render the annotated preview page of a proposal
  snapshot   Collect a proposal from an annotated preview page
  validate   Check an exported .html or .eml file
  drafts     Manage saved drafts (list, save, show, delete)
  assets     List the fallback pictogram table
  version    Show version
  help       Show this help

Examples:
  proposal export -sample -format=both -to=buyer@example.com
  proposal export -draft=acme -out=./out -mbox=./out/sent.mbox
  proposal preview -in=proposal.json -out=preview.html
  proposal snapshot -file=preview.html -save=acme
  proposal validate -file=ACME-2024-017_Proposal.eml
  proposal drafts list

Environment Variables:
  DATA_PATH       Base data directory (default: ./.data)
  DRAFTS_DB_PATH  Draft database (default: $DATA_PATH/drafts.db)
  ASSET_PATH      Local image directory (default: $DATA_PATH/assets)
  EXPORT_PATH     Export directory (default: $DATA_PATH/exports)`)
}

// source selects where a command reads its proposal from.
type source struct {
	draft  *string
	in     *string
	sample *bool
}

func sourceFlags(fs *flag.FlagSet) source {
	return source{
		draft:  fs.String("draft", "", "Saved draft key"),
		in:     fs.String("in", "", "Proposal JSON file or annotated preview HTML"),
		sample: fs.Bool("sample", false, "Use the built-in sample proposal"),
	}
}

func (s source) needsDB() bool {
	return *s.draft != ""
}

func (s source) load(ctx context.Context, a *app) (*proposal.Proposal, error) {
	switch {
	case *s.sample:
		return proposal.Sample(), nil
	case *s.draft != "":
		return a.drafts.Load(ctx, *s.draft)
	case *s.in != "":
		return readProposal(*s.in)
	default:
		return nil, fmt.Errorf("one of -draft, -in or -sample is required")
	}
}

func readProposal(path string) (*proposal.Proposal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return snapshot.FromHTML(f)
	default:
		var p proposal.Proposal
		if err := json.NewDecoder(f).Decode(&p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return &p, nil
	}
}

func exportCmd(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	configFile := fs.String("config", "", "Config file (YAML)")
	src := sourceFlags(fs)
	format := fs.String("format", "html", "Output format: html, eml or both")
	outDir := fs.String("out", "", "Output directory (default: config or $EXPORT_PATH)")
	from := fs.String("from", "", "Message From address")
	to := fs.String("to", "", "Message To address")
	subject := fs.String("subject", "", "Message subject (default: Proposal for <customer>)")
	mboxFile := fs.String("mbox", "", "Also append the .eml message to this mbox file")
	fs.Parse(args)

	*format = strings.ToLower(*format)
	if *format != "html" && *format != "eml" && *format != "both" {
		fail("Error: -format must be html, eml or both")
	}

	ctx := context.Background()
	a := mustApp(*configFile, src.needsDB())
	defer a.Close()

	p, err := src.load(ctx, a)
	if err != nil {
		fail("Error loading proposal: %v", err)
	}

	dir := firstNonEmpty(*outDir, a.cfg.Export.OutDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		fail("Error creating output directory: %v", err)
	}

	var files []*export.File
	if *format == "html" || *format == "both" {
		f, err := a.exporter.HTML(ctx, p)
		if err != nil {
			fail("Error exporting HTML: %v", err)
		}
		files = append(files, f)
	}
	if *format == "eml" || *format == "both" {
		meta := mail.Metadata{
			From:    firstNonEmpty(*from, a.cfg.Export.From),
			To:      firstNonEmpty(*to, a.cfg.Export.To),
			Subject: firstNonEmpty(*subject, defaultSubject(p)),
		}
		f, err := a.exporter.EML(ctx, p, meta)
		if err != nil {
			fail("Error exporting message: %v", err)
		}
		files = append(files, f)

		if *mboxFile != "" {
			if err := appendMbox(*mboxFile, meta.From, f.Data); err != nil {
				fail("Error writing mbox: %v", err)
			}
			fmt.Printf("✓ Appended to %s\n", *mboxFile)
		}
	}

	for _, f := range files {
		path := filepath.Join(dir, f.Name)
		if err := os.WriteFile(path, f.Data, 0644); err != nil {
			fail("Error writing output: %v", err)
		}
		logx.Infow("export written", logx.Field("path", path), logx.Field("warnings", len(f.Warnings)))
		fmt.Printf("✓ Exported %s (%.1f KB)\n", path, f.SizeKB)
		for _, w := range f.Warnings {
			fmt.Printf("  ⚠ %s\n", w)
		}
	}
}

func defaultSubject(p *proposal.Proposal) string {
	if c := strings.TrimSpace(p.Customer); c != "" {
		return "Proposal for " + c
	}
	return "Proposal"
}

func appendMbox(path, from string, msg []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if err := mail.AppendMbox(f, from, time.Now(), string(msg)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func previewCmd(args []string) {
	fs := flag.NewFlagSet("preview", flag.ExitOnError)
	configFile := fs.String("config", "", "Config file (YAML)")
	src := sourceFlags(fs)
	outFile := fs.String("out", "", "Output file (default: stdout)")
	fs.Parse(args)

	a := mustApp(*configFile, src.needsDB())
	defer a.Close()

	p, err := src.load(context.Background(), a)
	if err != nil {
		fail("Error loading proposal: %v", err)
	}

	if *outFile == "" {
		if err := preview.Render(os.Stdout, p); err != nil {
			fail("Error rendering preview: %v", err)
		}
		return
	}

	f, err := os.Create(*outFile)
	if err != nil {
		fail("Error creating output: %v", err)
	}
	defer f.Close()
	if err := preview.Render(f, p); err != nil {
		fail("Error rendering preview: %v", err)
	}
	fmt.Printf("Rendered preview to %s\n", *outFile)
}

func snapshotCmd(args []string) {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	configFile := fs.String("config", "", "Config file (YAML)")
	file := fs.String("file", "", "Annotated preview HTML file")
	save := fs.String("save", "", "Save the collected proposal as a draft with this key")
	fs.Parse(args)

	if *file == "" {
		fail("Error: -file is required")
	}

	f, err := os.Open(*file)
	if err != nil {
		fail("Error reading file: %v", err)
	}
	p, err := snapshot.FromHTML(f)
	f.Close()
	if err != nil {
		fail("Error collecting proposal: %v", err)
	}

	if *save == "" {
		printJSON(p)
		return
	}

	a := mustApp(*configFile, true)
	defer a.Close()
	if err := a.drafts.Save(context.Background(), *save, p); err != nil {
		fail("Error saving draft: %v", err)
	}
	fmt.Printf("✓ Saved draft %q\n", *save)
}

func validateCmd(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	file := fs.String("file", "", "HTML or EML file to validate")
	fs.Parse(args)

	if *file == "" {
		fail("Error: -file is required")
	}

	content, err := os.ReadFile(*file)
	if err != nil {
		fail("Error reading file: %v", err)
	}

	var issues []string
	if strings.EqualFold(filepath.Ext(*file), ".eml") {
		issues = mail.ValidateMessage(string(content))
	} else {
		issues = mail.ValidateHTML(string(content))
	}

	if len(issues) == 0 {
		fmt.Printf("✓ %s - No issues found\n", *file)
		return
	}
	fmt.Printf("⚠ %s - Found %d issue(s):\n", *file, len(issues))
	for _, issue := range issues {
		fmt.Printf("  • %s\n", issue)
	}
	os.Exit(1)
}

func draftsCmd(args []string) {
	if len(args) == 0 {
		fail("Usage: proposal drafts list|save|show|delete [options]")
	}

	fs := flag.NewFlagSet("drafts "+args[0], flag.ExitOnError)
	configFile := fs.String("config", "", "Config file (YAML)")
	key := fs.String("key", "", "Draft key")
	in := fs.String("in", "", "Proposal JSON file or annotated preview HTML (save)")
	sample := fs.Bool("sample", false, "Save the built-in sample proposal (save)")
	fs.Parse(args[1:])

	ctx := context.Background()
	a := mustApp(*configFile, true)
	defer a.Close()

	switch args[0] {
	case "list":
		list, err := a.drafts.List(ctx)
		if err != nil {
			fail("Error listing drafts: %v", err)
		}
		if len(list) == 0 {
			fmt.Println("No drafts saved")
			return
		}
		fmt.Printf("Drafts (%d):\n", len(list))
		for _, d := range list {
			fmt.Printf("  • %-24s %s\n", d.Key, d.UpdatedAt.Local().Format(time.DateTime))
		}
	case "save":
		requireKey(*key)
		var (
			p   *proposal.Proposal
			err error
		)
		switch {
		case *sample:
			p = proposal.Sample()
		case *in != "":
			p, err = readProposal(*in)
		default:
			err = fmt.Errorf("-in or -sample is required")
		}
		if err != nil {
			fail("Error loading proposal: %v", err)
		}
		if err := a.drafts.Save(ctx, *key, p); err != nil {
			fail("Error saving draft: %v", err)
		}
		fmt.Printf("✓ Saved draft %q\n", *key)
	case "show":
		requireKey(*key)
		p, err := a.drafts.Load(ctx, *key)
		if err != nil {
			fail("Error loading draft: %v", err)
		}
		printJSON(p)
	case "delete":
		requireKey(*key)
		if err := a.drafts.Delete(ctx, *key); err != nil {
			fail("Error deleting draft: %v", err)
		}
		fmt.Printf("✓ Deleted draft %q\n", *key)
	default:
		fail("Unknown drafts command: %s", args[0])
	}
}

func assetsCmd(args []string) {
	fs := flag.NewFlagSet("assets", flag.ExitOnError)
	configFile := fs.String("config", "", "Config file (YAML)")
	fs.Parse(args)

	a := mustApp(*configFile, false)
	defer a.Close()

	keys := a.assets.Keys()
	fmt.Printf("Fallback assets (%d):\n", len(keys))
	for _, k := range keys {
		uri, _ := a.assets.Lookup(k)
		mime, _, _ := strings.Cut(strings.TrimPrefix(uri, "data:"), ";")
		fmt.Printf("  • %-20s %s\n", k, mime)
	}
}

func requireKey(key string) {
	if strings.TrimSpace(key) == "" {
		fail("Error: -key is required")
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fail("Error encoding JSON: %v", err)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func fail(format string, args ...any) {
	fmt.Printf(format+"\n", args...)
	os.Exit(1)
}

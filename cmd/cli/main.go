package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	_ "github.com/lib/pq"
	"github.com/nickyhof/BotDesk"
	"github.com/nickyhof/BotDesk/db"
	"github.com/nickyhof/BotDesk/op"
	"github.com/nickyhof/BotDesk/ps"
)

const (
	PromptColor  = "\033[36m" // Cyan
	ErrorColor   = "\033[31m" // Red
	SuccessColor = "\033[32m" // Green
	ResetColor   = "\033[0m"
	BoldColor    = "\033[1m"
)

// paramSeparator splits a line into SQL and a JSON array of parameters.
const paramSeparator = " -- "

// Version is set at build time via -ldflags
var Version = "dev"

// CLI holds the CLI state
type CLI struct {
	instance    *BotDesk.Instance
	history     []string
	historyFile string
}

func main() {
	cfg := BotDesk.DefaultConfig()
	cfg.RegisterFlags(flag.CommandLine)
	query := flag.String("query", "", "Statement to execute (non-interactive)")
	params := flag.String("params", "", "JSON array of parameters for -query")
	sqlFile := flag.String("sqlFile", "", "SQL file to execute (non-interactive)")
	flag.Parse()

	instance, err := BotDesk.Open(context.Background(), cfg)
	if err != nil {
		fmt.Printf("%sError: %v%s\n", ErrorColor, err, ResetColor)
		os.Exit(1)
	}
	defer instance.Close()

	cli := &CLI{
		instance:    instance,
		history:     make([]string, 0),
		historyFile: getHistoryPath(),
	}

	if *query != "" {
		values, err := parseParams(*params)
		if err == nil {
			err = cli.executeAndDisplay(*query, values)
		}
		if err != nil {
			fmt.Printf("%sError: %v%s\n", ErrorColor, err, ResetColor)
			os.Exit(1)
		}
		return
	}

	if *sqlFile != "" {
		if err := cli.importFile(*sqlFile); err != nil {
			fmt.Printf("%sError importing file: %v%s\n", ErrorColor, err, ResetColor)
			os.Exit(1)
		}
		return
	}

	printBanner(cfg)
	cli.loadHistory()
	cli.run()
}

func printBanner(cfg BotDesk.Config) {
	fmt.Println()
	bannerWidth := 39 // inner width of the banner box
	versionLine := fmt.Sprintf("BotDesk v%s", Version)
	padding := bannerWidth - len(versionLine) - 2 // -2 for "  " margins
	if padding < 0 {
		padding = 0
	}
	leftPad := padding / 2
	rightPad := padding - leftPad

	fmt.Printf("%s%s╔═══════════════════════════════════════╗%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Printf("%s%s║ %*s%s%*s ║%s\n", BoldColor, PromptColor, leftPad, "", versionLine, rightPad, "", ResetColor)
	fmt.Printf("%s%s║   Chatbot dashboard query shell       ║%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Printf("%s%s╚═══════════════════════════════════════╝%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Println()
	fmt.Printf("%sStore: %s, primary: %s%s\n", SuccessColor, cfg.Store, primaryName(cfg), ResetColor)
	fmt.Println("Type .help for commands, .quit to exit")
	fmt.Println()
}

func primaryName(cfg BotDesk.Config) string {
	if cfg.Offline || cfg.Primary == "" {
		return BotDesk.PrimaryNone
	}
	return cfg.Primary
}

func (cli *CLI) run() {
	reader := bufio.NewReader(os.Stdin)
	var multiLineBuffer strings.Builder

	for {
		fmt.Print(cli.getPrompt(multiLineBuffer.Len() > 0))

		input, err := reader.ReadString('\n')
		if err != nil {
			fmt.Printf("\n%sGoodbye!%s\n", SuccessColor, ResetColor)
			cli.saveHistory()
			return
		}

		input = strings.TrimSuffix(input, "\n")
		input = strings.TrimSuffix(input, "\r")

		if strings.TrimSpace(input) == "" {
			continue
		}

		// Special commands only outside multi-line mode
		if multiLineBuffer.Len() == 0 && strings.HasPrefix(input, ".") {
			if cli.handleCommand(input) {
				continue
			}
		}

		// A statement ends with ';' or with its parameter list
		multiLineBuffer.WriteString(input)
		trimmed := strings.TrimSpace(multiLineBuffer.String())
		if !strings.HasSuffix(trimmed, ";") && !strings.Contains(trimmed, paramSeparator) {
			multiLineBuffer.WriteString(" ")
			continue
		}
		multiLineBuffer.Reset()

		cli.addToHistory(trimmed)

		text, values, err := splitParams(trimmed)
		if err == nil {
			err = cli.executeAndDisplay(text, values)
		}
		if err != nil {
			fmt.Printf("%s✗ Error: %v%s\n", ErrorColor, err, ResetColor)
		}
	}
}

func (cli *CLI) getPrompt(multiLine bool) string {
	if multiLine {
		return fmt.Sprintf("%s   ...>%s ", PromptColor, ResetColor)
	}
	return fmt.Sprintf("%sbotdesk>%s ", PromptColor, ResetColor)
}

// splitParams separates "<sql> -- <json params>" and strips the trailing ';'.
func splitParams(line string) (string, []any, error) {
	line = strings.TrimSpace(line)
	text, rawParams, found := strings.Cut(line, paramSeparator)
	if !found {
		return strings.TrimSuffix(line, ";"), nil, nil
	}

	text = strings.TrimSuffix(strings.TrimSpace(text), ";")
	rawParams = strings.TrimSuffix(strings.TrimSpace(rawParams), ";")
	params, err := parseParams(rawParams)
	return text, params, err
}

// parseParams decodes a JSON array. Numbers keep their literal form.
func parseParams(raw string) ([]any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var params []any
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&params); err != nil {
		return nil, fmt.Errorf("params must be a JSON array: %w", err)
	}
	return params, nil
}

// execute runs text through the service facade, so a configured primary
// backend answers first.
func (cli *CLI) execute(text string, params []any) (db.Result, error) {
	statement, ok := db.ParseOrEmpty(text)
	if !ok {
		return db.QueryResult{}, nil
	}
	return cli.instance.Services.Facade.Execute(context.Background(), statement, params...)
}

func (cli *CLI) executeAndDisplay(text string, params []any) error {
	result, err := cli.execute(text, params)
	if err != nil {
		return err
	}
	result.Display()
	return nil
}

func (cli *CLI) handleCommand(input string) bool {
	parts := strings.Fields(strings.TrimSpace(input))
	if len(parts) == 0 {
		return true
	}

	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit", ".q":
		fmt.Printf("%sGoodbye!%s\n", SuccessColor, ResetColor)
		cli.saveHistory()
		cli.instance.Close()
		os.Exit(0)

	case ".help", ".h", ".?":
		cli.printHelp()

	case ".tables":
		cli.showTables()

	case ".collection":
		if len(parts) > 1 {
			fmt.Println(ps.CollectionName(parts[1]))
		} else {
			fmt.Printf("%s✗ Usage: .collection <table>%s\n", ErrorColor, ResetColor)
		}

	case ".log":
		cli.showLog()

	case ".restore":
		if len(parts) > 1 {
			cli.restore(parts[1])
		} else {
			fmt.Printf("%s✗ Usage: .restore <transaction>%s\n", ErrorColor, ResetColor)
		}

	case ".clear", ".cls":
		fmt.Print("\033[H\033[2J")

	case ".history":
		cli.printHistory()

	case ".version":
		fmt.Printf("BotDesk version %s\n", Version)

	case ".import":
		if len(parts) > 1 {
			if err := cli.importFile(parts[1]); err != nil {
				fmt.Printf("%s✗ Error: %v%s\n", ErrorColor, err, ResetColor)
			}
		} else {
			fmt.Printf("%s✗ Usage: .import <file.sql>%s\n", ErrorColor, ResetColor)
		}

	default:
		fmt.Printf("%s✗ Unknown command: %s (type .help for commands)%s\n", ErrorColor, parts[0], ResetColor)
	}

	return true
}

func (cli *CLI) printHelp() {
	fmt.Println()
	fmt.Printf("%s%sSpecial Commands:%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Println("  .help, .h           Show this help message")
	fmt.Println("  .quit, .exit        Exit the CLI")
	fmt.Println("  .tables             List stored collections")
	fmt.Println("  .collection <t>     Show the collection a table is stored under")
	fmt.Println("  .log                Show store transactions (git store)")
	fmt.Println("  .restore <txn>      Rewind the store to a transaction (git store)")
	fmt.Println("  .import <file>      Execute SQL statements from a file")
	fmt.Println("  .history            Show command history")
	fmt.Println("  .clear              Clear the screen")
	fmt.Println("  .version            Show version info")
	fmt.Println()
	fmt.Printf("%s%sSQL Commands:%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Println("  SELECT * FROM <table> [WHERE <col> = ?];")
	fmt.Println("  INSERT INTO <table> (<cols>) VALUES (?, ...);")
	fmt.Println("  UPDATE <table> SET <col> = ?, ... WHERE <col> = ?;")
	fmt.Println("  DELETE FROM <table> WHERE <col> = ?;")
	fmt.Println()
	fmt.Printf("%s%sParameters:%s append a JSON array after ' -- ', e.g.\n", BoldColor, PromptColor, ResetColor)
	fmt.Println(`  SELECT * FROM chatbots WHERE user_id = ? -- ["user-1"]`)
	fmt.Println()
}

func (cli *CLI) showTables() {
	tables, err := op.GetStore(cli.instance.Store).CollectionNames()
	if err != nil {
		fmt.Printf("%s✗ Error: %v%s\n", ErrorColor, err, ResetColor)
		return
	}
	if len(tables) == 0 {
		fmt.Println("No collections")
		return
	}
	for _, table := range tables {
		fmt.Printf("  %s\n", table)
	}
}

func (cli *CLI) showLog() {
	transactions, err := cli.instance.History().TransactionsSince(time.Time{})
	if err != nil {
		fmt.Printf("%s✗ Error: %v%s\n", ErrorColor, err, ResetColor)
		return
	}
	for _, transaction := range transactions {
		fmt.Printf("  %s  %s  %s\n", transaction.Id[:12], transaction.When.Format("2006-01-02 15:04:05"), transaction.Author)
	}
}

func (cli *CLI) restore(id string) {
	history := cli.instance.History()
	transactions, err := history.TransactionsSince(time.Time{})
	if err != nil {
		fmt.Printf("%s✗ Error: %v%s\n", ErrorColor, err, ResetColor)
		return
	}
	for _, transaction := range transactions {
		if strings.HasPrefix(transaction.Id, id) {
			restored, err := history.Restore(transaction)
			if err != nil {
				fmt.Printf("%s✗ Error: %v%s\n", ErrorColor, err, ResetColor)
				return
			}
			fmt.Printf("%s✓ Restored to %s as %s%s\n", SuccessColor, transaction.Id[:12], restored.Id[:12], ResetColor)
			return
		}
	}
	fmt.Printf("%s✗ Unknown transaction: %s%s\n", ErrorColor, id, ResetColor)
}

func (cli *CLI) addToHistory(cmd string) {
	// Don't add duplicates of the last command
	if len(cli.history) > 0 && cli.history[len(cli.history)-1] == cmd {
		return
	}
	cli.history = append(cli.history, cmd)

	if len(cli.history) > 1000 {
		cli.history = cli.history[len(cli.history)-1000:]
	}
}

func (cli *CLI) printHistory() {
	if len(cli.history) == 0 {
		fmt.Println("No command history")
		return
	}

	start := 0
	if len(cli.history) > 20 {
		start = len(cli.history) - 20
	}

	for i := start; i < len(cli.history); i++ {
		fmt.Printf("  %3d  %s\n", i+1, cli.history[i])
	}
}

func getHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".botdesk_history")
}

func (cli *CLI) loadHistory() {
	if cli.historyFile == "" {
		return
	}

	file, err := os.Open(cli.historyFile)
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		cli.history = append(cli.history, scanner.Text())
	}
}

func (cli *CLI) saveHistory() {
	if cli.historyFile == "" {
		return
	}

	file, err := os.Create(cli.historyFile)
	if err != nil {
		return
	}
	defer file.Close()

	start := 0
	if len(cli.history) > 1000 {
		start = len(cli.history) - 1000
	}

	for i := start; i < len(cli.history); i++ {
		_, _ = file.WriteString(cli.history[i] + "\n")
	}
}

// importFile executes the statements of a file, one per ';'. A statement may
// carry parameters as "<sql> -- <json params>" on its last line.
func (cli *CLI) importFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	successCount := 0
	errorCount := 0

	for i, stmt := range splitStatements(string(data)) {
		text, params, err := splitParams(stmt)
		var result db.Result
		if err == nil {
			result, err = cli.execute(text, params)
		}
		if err != nil {
			fmt.Printf("%s[%d] ✗ %s%s\n", ErrorColor, i+1, truncate(text, 50), ResetColor)
			fmt.Printf("      Error: %v\n", err)
			errorCount++
			continue
		}

		successCount++
		switch r := result.(type) {
		case db.CommitResult:
			fmt.Printf("%s[%d] ✓ %s (%d affected)%s\n", SuccessColor, i+1, truncate(text, 50), r.AffectedRows, ResetColor)
		case db.InsertResult:
			fmt.Printf("%s[%d] ✓ %s (id %v)%s\n", SuccessColor, i+1, truncate(text, 50), r.InsertID, ResetColor)
		default:
			fmt.Printf("%s[%d] ✓ %s (%d rows)%s\n", SuccessColor, i+1, truncate(text, 50), len(result.Rows()), ResetColor)
		}
	}

	fmt.Printf("\n%s✓ Import complete: %d succeeded, %d failed%s\n",
		SuccessColor, successCount, errorCount, ResetColor)

	return nil
}

// splitStatements splits SQL content into individual statements. Line
// comments are dropped unless they follow the parameter separator.
func splitStatements(content string) []string {
	var statements []string
	var current strings.Builder
	inString := false
	stringChar := byte(0)

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if (ch == '\'' || ch == '"') && (i == 0 || content[i-1] != '\\') {
			if !inString {
				inString = true
				stringChar = ch
			} else if ch == stringChar {
				inString = false
			}
		}

		if !inString && ch == '-' && i+1 < len(content) && content[i+1] == '-' {
			// "-- [" after a statement carries its parameters
			rest := strings.TrimLeft(content[i+2:], " ")
			if strings.HasPrefix(rest, "[") && strings.TrimSpace(current.String()) != "" {
				end := strings.IndexByte(content[i:], '\n')
				if end < 0 {
					end = len(content) - i
				}
				params := strings.TrimSpace(content[i+2 : i+end])
				current.WriteString(paramSeparator + strings.TrimSuffix(params, ";"))
				statements = append(statements, strings.TrimSpace(current.String()))
				current.Reset()
				i += end
				continue
			}
			for i < len(content) && content[i] != '\n' {
				i++
			}
			continue
		}

		if !inString && ch == ';' {
			stmt := strings.TrimSpace(current.String())
			if stmt != "" {
				statements = append(statements, stmt)
			}
			current.Reset()
			continue
		}

		current.WriteByte(ch)
	}

	stmt := strings.TrimSpace(current.String())
	if stmt != "" {
		statements = append(statements, stmt)
	}

	return statements
}

// truncate shortens a string to max length with ellipsis
func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

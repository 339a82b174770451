package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// dbCmd runs canned read queries against a world's sqlite index and prints
// one JSON object per row.
func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (required unless -db)")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	limit := fs.Int("limit", 20, "result limit")
	name := fs.String("name", "", "player name filter (reorders)")
	sinceTick := fs.Uint64("since_tick", 0, "first tick (reorders, ticks)")
	_ = fs.Parse(args)

	q := "snapshots"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}
	if *limit <= 0 {
		*limit = 20
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		if strings.TrimSpace(*worldID) == "" {
			fail(2, "missing -world or -db")
		}
		path = filepath.Join(*dataDir, "worlds", *worldID, "index", "world.sqlite")
	}
	if _, err := os.Stat(path); err != nil {
		fail(1, "open:", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		fail(1, "open:", err)
	}
	defer db.Close()

	var n int
	switch q {
	case "snapshots":
		n, err = printRows(db, `SELECT tick,path,world_id,players,containers,stacks FROM snapshots ORDER BY tick DESC LIMIT ?`, *limit)
	case "reorders":
		n, err = printRows(db, `SELECT tick,name,player_id,sync_id,inventory,pairs,accepted,COALESCE(code,'') AS code,COALESCE(reason,'') AS reason,severe
			FROM reorders WHERE tick >= ? AND (? = '' OR name = ?) ORDER BY tick DESC LIMIT ?`, *sinceTick, *name, *name, *limit)
	case "rejections":
		n, err = printRows(db, `SELECT code,COUNT(*) AS n,SUM(severe) AS severe FROM reorders WHERE accepted = 0 GROUP BY code ORDER BY n DESC LIMIT ?`, *limit)
	case "ticks":
		n, err = printRows(db, `SELECT tick,digest,joins,leaves,actions FROM ticks WHERE tick >= ? ORDER BY tick DESC LIMIT ?`, *sinceTick, *limit)
	case "catalogs":
		n, err = printRows(db, `SELECT name,digest,updated_at FROM catalogs ORDER BY name LIMIT ?`, *limit)
	default:
		fail(2, "unknown query:", q, "(snapshots|reorders|rejections|ticks|catalogs)")
	}
	if err != nil {
		fail(1, "query:", err)
	}
	if n == 0 {
		fmt.Fprintln(os.Stderr, "no rows")
	}
}

// printRows prints each result row as a JSON object keyed by column name.
func printRows(db *sql.DB, query string, args ...any) (int, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return 0, err
	}
	n := 0
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return n, err
		}
		obj := make(map[string]any, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				obj[c] = string(b)
				continue
			}
			obj[c] = vals[i]
		}
		b, _ := json.Marshal(obj)
		fmt.Println(string(b))
		n++
	}
	return n, rows.Err()
}

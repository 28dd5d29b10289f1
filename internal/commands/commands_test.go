package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const raiffeisenFixture = `Дата операции;Детали операции (назначение платежа);Сумма в валюте операции (поступления);Сумма в валюте операции (расходы);Номер документа;Валюта
14.03.2025;ПЯТЕРОЧКА 1234 MOSCOW;;1 234,56;REF1;RUB
15.03.2025;Зарплата за февраль;50 000,00;;REF3;RUB
`

func runVesta(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func initDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	_, err := runVesta(t, "init", dir, "--account", "Raif Card:raiffeisen:1111")
	require.NoError(t, err)
	return dir
}

func TestInit_CreatesDataDir(t *testing.T) {
	dir := t.TempDir()
	out, err := runVesta(t, "init", dir, "--account", "Raif Card:raiffeisen:1111", "--account", "Alfa:alfabank:2222")
	require.NoError(t, err)
	assert.Contains(t, out, "Initialized vesta data directory")

	for _, f := range []string{"vesta.yaml", "categories.csv", "rules.csv", "accounts.csv", ".git"} {
		_, err := os.Stat(filepath.Join(dir, f))
		require.NoError(t, err, "%s should exist", f)
	}
}

func TestInit_UnknownBank(t *testing.T) {
	dir := t.TempDir()
	_, err := runVesta(t, "init", dir, "--account", "Card:tinkoff:1111")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown bank")
}

func TestInit_MalformedAccountSpec(t *testing.T) {
	dir := t.TempDir()
	_, err := runVesta(t, "init", dir, "--account", "just-a-name")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want name:bank:last4")
}

func TestBanks_ListsFormats(t *testing.T) {
	out, err := runVesta(t, "banks")
	require.NoError(t, err)
	assert.Contains(t, out, "alfabank")
	assert.Contains(t, out, "raiffeisen")
	assert.Contains(t, out, "sberbank")
}

func TestImport_PreviewWritesNothing(t *testing.T) {
	dir := initDataDir(t)
	file := filepath.Join(t.TempDir(), "march.csv")
	require.NoError(t, os.WriteFile(file, []byte(raiffeisenFixture), 0o644))

	out, err := runVesta(t, "import", file, "--data", dir, "--account", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "2 candidates, 0 rejected")
	assert.Contains(t, out, "Preview only")

	_, err = os.Stat(filepath.Join(dir, "transactions.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestImport_CommitPersists(t *testing.T) {
	dir := initDataDir(t)
	file := filepath.Join(t.TempDir(), "march.csv")
	require.NoError(t, os.WriteFile(file, []byte(raiffeisenFixture), 0o644))

	out, err := runVesta(t, "import", file, "--data", dir, "--account", "1", "--commit")
	require.NoError(t, err)
	assert.Contains(t, out, "Committed 2 transactions")

	_, err = os.Stat(filepath.Join(dir, "transactions.csv"))
	require.NoError(t, err)
}

func TestLog_ShowsImportHistory(t *testing.T) {
	dir := initDataDir(t)
	file := filepath.Join(t.TempDir(), "march.csv")
	require.NoError(t, os.WriteFile(file, []byte(raiffeisenFixture), 0o644))

	out, err := runVesta(t, "log", "--data", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No imports recorded")

	_, err = runVesta(t, "import", file, "--data", dir, "--account", "1", "--commit")
	require.NoError(t, err)

	out, err = runVesta(t, "log", "--data", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "imported")
	assert.Contains(t, out, "committed")
	assert.Contains(t, out, "march.csv")
}

func TestImport_MissingAccountFlag(t *testing.T) {
	dir := initDataDir(t)
	_, err := runVesta(t, "import", "whatever.csv", "--data", dir)
	require.Error(t, err)
}

func TestImport_UnknownAccount(t *testing.T) {
	dir := initDataDir(t)
	file := filepath.Join(t.TempDir(), "march.csv")
	require.NoError(t, os.WriteFile(file, []byte(raiffeisenFixture), 0o644))

	_, err := runVesta(t, "import", file, "--data", dir, "--account", "42")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "account 42")
}

func TestParseAccountSpecs_AssignsSequentialIDs(t *testing.T) {
	accounts, err := parseAccountSpecs([]string{"A:raiffeisen:1111", "B:sberbank:2222"})
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, 1, accounts[0].ID)
	assert.Equal(t, 2, accounts[1].ID)
	assert.Equal(t, "sberbank", accounts[1].Bank)
}

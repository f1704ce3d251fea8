package dashboard

import "github.com/neuropassword/npass/internal/models"

// EmptyVaultTitle is shown in place of the table when there are no folders.
const EmptyVaultTitle = "Secure Your First Password with Us"

const (
	placeholderCell = "-"
	untitled        = "Untitled"
	modifiedLayout  = "2006-01-02"
)

// TableHeader names the credential table columns.
var TableHeader = []string{"TITLE", "USERNAME", "URL", "FOLDERS", "MODIFIED"}

// Row is one line of the credential table. Credentials are not stored yet,
// so every folder produces a placeholder row.
type Row struct {
	Title    string
	Username string
	URL      string
	Folder   string
	Modified string
}

// Cells returns the row in TableHeader order.
func (r Row) Cells() []string {
	return []string{r.Title, r.Username, r.URL, r.Folder, r.Modified}
}

// Rows builds the credential table from the current view.
func (c *Controller) Rows() []Row {
	return BuildRows(c.Folders())
}

// BuildRows builds one placeholder row per folder.
func BuildRows(list []models.Folder) []Row {
	rows := make([]Row, 0, len(list))
	for _, f := range list {
		row := Row{
			Title:    placeholderCell,
			Username: placeholderCell,
			URL:      placeholderCell,
			Folder:   f.Title,
			Modified: placeholderCell,
		}
		if row.Folder == "" {
			row.Folder = untitled
		}
		if !f.CreatedAt.IsZero() {
			row.Modified = f.CreatedAt.Format(modifiedLayout)
		}
		rows = append(rows, row)
	}
	return rows
}

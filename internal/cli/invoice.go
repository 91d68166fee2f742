package cli

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/billfold/billfold/internal/backend"
	"github.com/billfold/billfold/internal/invoice"
	"github.com/billfold/billfold/internal/model"
	"github.com/billfold/billfold/internal/pdf"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var invoiceCmd = &cobra.Command{
	Use:     "invoice",
	Aliases: []string{"inv"},
	Short:   "Manage invoices",
}

var invoiceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List invoices with optional search and filters",
	RunE:  runInvoiceList,
}

var invoiceAddCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Record a new invoice",
	Args:  cobra.ExactArgs(1),
	RunE:  runInvoiceAdd,
}

var invoiceShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show one invoice in full",
	Args:  cobra.ExactArgs(1),
	RunE:  runInvoiceShow,
}

var invoiceDeleteCmd = &cobra.Command{
	Use:   "delete [id...]",
	Short: "Delete one or more invoices",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runInvoiceDelete,
}

var invoiceExportCSVCmd = &cobra.Command{
	Use:   "export-csv",
	Short: "Export invoices as CSV, honoring search and filters",
	RunE:  runInvoiceExportCSV,
}

var invoiceExportPDFCmd = &cobra.Command{
	Use:   "export-pdf [id]",
	Short: "Export an invoice's receipt image as a paginated A4 PDF",
	Args:  cobra.ExactArgs(1),
	RunE:  runInvoiceExportPDF,
}

func init() {
	invoiceCmd.AddCommand(invoiceListCmd)
	invoiceCmd.AddCommand(invoiceAddCmd)
	invoiceCmd.AddCommand(invoiceShowCmd)
	invoiceCmd.AddCommand(invoiceDeleteCmd)
	invoiceCmd.AddCommand(invoiceExportCSVCmd)
	invoiceCmd.AddCommand(invoiceExportPDFCmd)

	for _, c := range []*cobra.Command{invoiceListCmd, invoiceExportCSVCmd} {
		c.Flags().String("search", "", "Substring match on id, title or vendor")
		c.Flags().String("status", "", "Filter by status (paid, pending, overdue, emi)")
		c.Flags().String("category", "", "Filter by category")
		c.Flags().String("payment", "", "Filter by payment mode")
		c.Flags().String("from", "", "Purchase date lower bound (YYYY-MM-DD, inclusive)")
		c.Flags().String("to", "", "Purchase date upper bound (YYYY-MM-DD, inclusive)")
	}
	invoiceExportCSVCmd.Flags().StringP("output", "o", "invoices.csv", "Output file")

	invoiceAddCmd.Flags().String("vendor", "", "Vendor name")
	invoiceAddCmd.Flags().String("amount", "0", "Invoice amount")
	invoiceAddCmd.Flags().String("currency", "INR", "Currency code")
	invoiceAddCmd.Flags().String("date", "", "Purchase date (YYYY-MM-DD, default today)")
	invoiceAddCmd.Flags().String("payment", model.PaymentCard, "Payment mode (cash, card, upi, bank-transfer)")
	invoiceAddCmd.Flags().String("status", model.InvoicePending, "Status (paid, pending, overdue, emi)")
	invoiceAddCmd.Flags().String("category", "", "Category")
	invoiceAddCmd.Flags().Int("warranty", 0, "Warranty period in months")
	invoiceAddCmd.Flags().String("notes", "", "Free-form notes")
	invoiceAddCmd.Flags().String("image", "", "Receipt image to upload")

	invoiceExportPDFCmd.Flags().StringP("output", "o", "", "Output file (default <id>.pdf)")
}

// filterFromFlags builds the in-memory filter from the shared list flags
func filterFromFlags(cmd *cobra.Command) (string, invoice.Filter, error) {
	search, _ := cmd.Flags().GetString("search")

	var f invoice.Filter
	f.Status, _ = cmd.Flags().GetString("status")
	f.Category, _ = cmd.Flags().GetString("category")
	f.PaymentMode, _ = cmd.Flags().GetString("payment")

	if v, _ := cmd.Flags().GetString("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return "", f, fmt.Errorf("invalid --from date: %w", err)
		}
		f.From = t
	}
	if v, _ := cmd.Flags().GetString("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return "", f, fmt.Errorf("invalid --to date: %w", err)
		}
		f.To = t
	}

	return search, f, nil
}

func loadInvoices() (*invoice.Service, error) {
	client, err := newClient()
	if err != nil {
		return nil, err
	}
	if !client.IsSignedIn() {
		return nil, fmt.Errorf("not signed in, run 'billfold auth login' first")
	}

	svc := invoice.NewService(client)
	if err := svc.Refresh(); err != nil {
		return nil, err
	}
	return svc, nil
}

func runInvoiceList(cmd *cobra.Command, args []string) error {
	search, filter, err := filterFromFlags(cmd)
	if err != nil {
		return err
	}

	svc, err := loadInvoices()
	if err != nil {
		return err
	}

	items := svc.Apply(search, filter)
	if len(items) == 0 {
		fmt.Println("No invoices found.")
		return nil
	}

	fmt.Printf("%-36s  %-10s  %-24s  %-16s  %12s  %s\n",
		"ID", "DATE", "TITLE", "VENDOR", "AMOUNT", "STATUS")
	for _, inv := range items {
		fmt.Printf("%-36s  %-10s  %-24s  %-16s  %5s %6s  %s\n",
			inv.ID,
			inv.PurchaseDate.Format("2006-01-02"),
			clip(inv.Title, 24),
			clip(inv.Vendor.Name, 16),
			inv.Currency,
			inv.Amount.StringFixed(2),
			inv.Status)
	}
	fmt.Printf("\n%d invoice(s)\n", len(items))
	return nil
}

func runInvoiceAdd(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	if !client.IsSignedIn() {
		return fmt.Errorf("not signed in, run 'billfold auth login' first")
	}

	amountStr, _ := cmd.Flags().GetString("amount")
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return fmt.Errorf("invalid --amount: %w", err)
	}

	purchaseDate := time.Now()
	if v, _ := cmd.Flags().GetString("date"); v != "" {
		purchaseDate, err = time.Parse("2006-01-02", v)
		if err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
	}

	inv := model.Invoice{
		Title:        args[0],
		Amount:       amount,
		PurchaseDate: purchaseDate,
	}
	inv.Vendor.Name, _ = cmd.Flags().GetString("vendor")
	inv.Currency, _ = cmd.Flags().GetString("currency")
	inv.PaymentMode, _ = cmd.Flags().GetString("payment")
	inv.Status, _ = cmd.Flags().GetString("status")
	inv.Category, _ = cmd.Flags().GetString("category")
	inv.WarrantyMonths, _ = cmd.Flags().GetInt("warranty")
	inv.Notes, _ = cmd.Flags().GetString("notes")

	if !model.ValidInvoiceStatus(inv.Status) {
		return fmt.Errorf("unknown status %q", inv.Status)
	}

	if imagePath, _ := cmd.Flags().GetString("image"); imagePath != "" {
		f, err := os.Open(imagePath)
		if err != nil {
			return fmt.Errorf("failed to open image: %w", err)
		}
		defer f.Close()

		fmt.Println("🔄 Uploading receipt image...")
		url, err := client.Upload(backend.BucketInvoiceImages, filepath.Base(imagePath), f)
		if err != nil {
			return fmt.Errorf("upload failed: %w", err)
		}
		inv.ImageURL = url
	}

	svc := invoice.NewService(client)
	created, err := svc.Create(inv)
	if err != nil {
		return err
	}

	fmt.Printf("✅ Added invoice %s: %s (%s %s)\n",
		created.ID, created.Title, created.Currency, created.Amount.StringFixed(2))
	return nil
}

func runInvoiceShow(cmd *cobra.Command, args []string) error {
	svc, err := loadInvoices()
	if err != nil {
		return err
	}

	inv, err := svc.Get(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Invoice %s\n", inv.ID)
	fmt.Printf("  Title:         %s\n", inv.Title)
	fmt.Printf("  Vendor:        %s\n", inv.Vendor.Name)
	fmt.Printf("  Amount:        %s %s\n", inv.Currency, inv.Amount.StringFixed(2))
	fmt.Printf("  Purchase date: %s\n", inv.PurchaseDate.Format("2006-01-02"))
	fmt.Printf("  Payment mode:  %s\n", inv.PaymentMode)
	fmt.Printf("  Status:        %s\n", inv.Status)
	if inv.Category != "" {
		fmt.Printf("  Category:      %s\n", inv.Category)
	}
	if inv.WarrantyMonths > 0 {
		fmt.Printf("  Warranty:      %d months (until %s)\n",
			inv.WarrantyMonths, inv.WarrantyExpiry().Format("2006-01-02"))
	}
	if inv.Notes != "" {
		fmt.Printf("  Notes:         %s\n", inv.Notes)
	}
	if inv.ImageURL != "" {
		fmt.Printf("  Receipt:       %s\n", inv.ImageURL)
	}
	return nil
}

func runInvoiceDelete(cmd *cobra.Command, args []string) error {
	svc, err := loadInvoices()
	if err != nil {
		return err
	}

	if err := svc.BulkDelete(args); err != nil {
		return err
	}

	fmt.Printf("✅ Deleted %d invoice(s)\n", len(args))
	return nil
}

func runInvoiceExportCSV(cmd *cobra.Command, args []string) error {
	search, filter, err := filterFromFlags(cmd)
	if err != nil {
		return err
	}

	svc, err := loadInvoices()
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", output, err)
	}
	defer f.Close()

	rows := svc.Apply(search, filter)
	if err := invoice.ExportCSV(f, rows); err != nil {
		return fmt.Errorf("CSV export failed: %w", err)
	}

	fmt.Printf("✅ Exported %d invoice(s) to %s\n", len(rows), output)
	return nil
}

func runInvoiceExportPDF(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	if !client.IsSignedIn() {
		return fmt.Errorf("not signed in, run 'billfold auth login' first")
	}

	inv, err := client.GetInvoice(args[0])
	if err != nil {
		return err
	}
	if inv.ImageURL == "" {
		return fmt.Errorf("invoice %s has no receipt image", inv.ID)
	}

	url := inv.ImageURL
	if !strings.HasPrefix(url, "http") {
		url = client.ServerURL() + url
	}

	fmt.Println("🔄 Downloading receipt image...")
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = inv.ID + ".pdf"
	}

	exporter := pdf.NewExporter()
	pages := exporter.PageCount(img.Bounds().Dx(), img.Bounds().Dy())
	if err := exporter.Export(img, output); err != nil {
		return fmt.Errorf("PDF export failed: %w", err)
	}

	fmt.Printf("✅ Exported %s (%d page(s))\n", output, pages)
	return nil
}

// clip shortens a string for column display
func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

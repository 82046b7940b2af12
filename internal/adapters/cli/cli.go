package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"sales-backoffice/internal/app"
	"sales-backoffice/internal/core"
)

const usage = `Usage: app <command> [args]

Commands:
  products                 list products with stock
  stock <product-id>       show the stock count of a product
  set-stock <id> <count>   overwrite a product's stock count
  orders [status]          list orders (QUOTATION or SOLD)
  order <ref>              show an order by id or order number
  quote [-key K]           create a quotation from JSON on stdin
  sold <ref>               mark a quotation as sold
  delete <ref>             delete an order and restore its stock
  delete-item <item-id>    delete an order item and restore its stock`

// Run executes a one-shot CLI command.
// args is os.Args[1:]; the first element is the subcommand name.
func Run(ctx context.Context, svc app.ApplicationService, args []string, in io.Reader, out io.Writer) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	switch args[0] {
	case "products", "prod":
		result, err := svc.ListProducts(ctx)
		if err != nil {
			return fmt.Errorf("failed to list products: %w", err)
		}
		printProducts(out, result.Products)

	case "stock":
		id, err := intArg(args, 1, "product id")
		if err != nil {
			return err
		}
		result, err := svc.GetStock(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "product %d: %d in stock\n", result.ProductID, result.CountInStock)

	case "set-stock":
		id, err := intArg(args, 1, "product id")
		if err != nil {
			return err
		}
		count, err := strconv.Atoi(argAt(args, 2))
		if err != nil {
			return errors.New("Usage: app set-stock <product-id> <count>")
		}
		result, err := svc.SetStock(ctx, app.SetStockRequest{ProductID: id, Count: count})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: stock set to %d\n", result.Product.Name, result.Product.CountInStock)

	case "orders":
		result, err := svc.ListOrders(ctx, argAt(args, 1))
		if err != nil {
			return err
		}
		printOrders(out, result.Orders)

	case "order", "show":
		ref := argAt(args, 1)
		if ref == "" {
			return errors.New("Usage: app order <id|order-number>")
		}
		result, err := svc.GetOrder(ctx, ref)
		if err != nil {
			return err
		}
		printOrder(out, result.Order)

	case "quote", "q":
		fs := flag.NewFlagSet("quote", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		key := fs.String("key", "", "idempotency key")
		if err := fs.Parse(args[1:]); err != nil {
			return fmt.Errorf("Usage: app quote [-key K] < quotation.json: %w", err)
		}

		var req app.CreateQuotationRequest
		if err := json.NewDecoder(in).Decode(&req); err != nil {
			return fmt.Errorf("invalid JSON: %w", err)
		}
		req.IdempotencyKey = *key

		result, err := svc.CreateQuotation(ctx, req)
		if err != nil {
			var failures core.ValidationErrors
			if errors.As(err, &failures) {
				fmt.Fprintln(out, "Quotation rejected:")
				for _, f := range failures {
					fmt.Fprintf(out, "  %s\n", f.Error())
				}
			}
			return err
		}
		printOrder(out, result.Order)

	case "sold":
		ref := argAt(args, 1)
		if ref == "" {
			return errors.New("Usage: app sold <id|order-number>")
		}
		result, err := svc.MarkSold(ctx, ref)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Order %s marked %s.\n", result.Order.OrderNumber, result.Order.Status)

	case "delete":
		ref := argAt(args, 1)
		if ref == "" {
			return errors.New("Usage: app delete <id|order-number>")
		}
		if err := svc.DeleteOrder(ctx, ref); err != nil {
			return err
		}
		fmt.Fprintf(out, "Order %s deleted, stock restored.\n", ref)

	case "delete-item":
		id, err := intArg(args, 1, "item id")
		if err != nil {
			return err
		}
		if err := svc.DeleteOrderItem(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(out, "Order item %d deleted, stock restored.\n", id)

	default:
		return fmt.Errorf("unknown command: %s\n%s", args[0], usage)
	}
	return nil
}

func argAt(args []string, i int) string {
	if i < len(args) {
		return strings.TrimSpace(args[i])
	}
	return ""
}

func intArg(args []string, i int, name string) (int, error) {
	v, err := strconv.Atoi(argAt(args, i))
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return v, nil
}

func printProducts(out io.Writer, products []core.Product) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %-6s %-30s %-6s %8s %12s\n", "ID", "NAME", "UNIT", "STOCK", "PRICE")
	fmt.Fprintln(out, strings.Repeat("-", 68))
	for _, p := range products {
		fmt.Fprintf(out, "  %-6d %-30s %-6s %8d %12s\n", p.ID, p.Name, p.UnitOfMeasure, p.CountInStock, p.SalePrice.StringFixed(2))
	}
}

func printOrders(out io.Writer, orders []core.SaleOrder) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %-6s %-16s %-12s %-10s %12s\n", "ID", "NUMBER", "DATE", "STATUS", "TOTAL")
	fmt.Fprintln(out, strings.Repeat("-", 62))
	for _, o := range orders {
		fmt.Fprintf(out, "  %-6d %-16s %-12s %-10s %12s\n", o.ID, o.OrderNumber, o.DateOrdered, o.Status, o.Total.StringFixed(2))
	}
}

func printOrder(out io.Writer, o *core.SaleOrder) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("=", 62))
	fmt.Fprintf(out, "  Order    : %s (id %d)\n", o.OrderNumber, o.ID)
	fmt.Fprintf(out, "  Date     : %s\n", o.DateOrdered)
	fmt.Fprintf(out, "  Status   : %s\n", o.Status)
	fmt.Fprintf(out, "  Company  : %d   In charge: %d   User: %d\n", o.CompanyID, o.PersonInChargeID, o.UserID)
	fmt.Fprintln(out, strings.Repeat("-", 62))
	for _, it := range o.Items {
		fmt.Fprintf(out, "  %3d  %-24s %6d x %10s = %10s\n",
			it.LineNumber, it.ProductName, it.Quantity, it.UnitPrice.StringFixed(2), it.Amount.StringFixed(2))
	}
	fmt.Fprintln(out, strings.Repeat("-", 62))
	fmt.Fprintf(out, "  %-46s %13s\n", "TOTAL", o.Total.StringFixed(2))
	fmt.Fprintln(out, strings.Repeat("=", 62))
}

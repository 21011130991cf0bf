package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"assetline/internal/app"
	"assetline/internal/config"
	"assetline/internal/db"
	"assetline/internal/domain"
	"assetline/internal/engine"
	"assetline/internal/migrate"
	"assetline/internal/query"
	"assetline/internal/repo"
	"assetline/internal/server"
	"assetline/internal/timeline"
)

var rootCmd = &cobra.Command{
	Use:   "al",
	Short: "Assetline CLI",
	Long: `Assetline tracks IT assets through their whole life: registered, assigned,
maintained, returned, retired. Every change lands in an append-only event log,
so an asset's timeline is always reconstructable.
- Workspace: your .assetline directory holding the database; org config lives
  in the DB and can be imported from assetline.yml.
- Assets: hardware and licenses with a tag, category, condition and status.
  Status flows available -> assigned -> available, with maintenance, retired
  and lost as administrative moves.
- Assignments: who holds which asset, since when, and until when. Returning
  closes the assignment and frees the asset.
- Directory: employees and locations that assets are handed to and kept at.
- Roles: viewer reads, it_officer runs the day-to-day, admin can delete
  assets and manage users.
- Event log: diary of changes, view with 'al log tail' or per asset with
  'al asset timeline'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("ASSETLINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-admin", "actor identifier")
	rootCmd.PersistentFlags().String("role", "admin", "actor role (viewer, it_officer, admin)")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
	_ = viper.BindPFlag("role", rootCmd.PersistentFlags().Lookup("role"))
}

func registerCommands() {
	rootCmd.AddCommand(assetCmd())
	rootCmd.AddCommand(assignmentCmd())
	rootCmd.AddCommand(employeeCmd())
	rootCmd.AddCommand(locationCmd())
	rootCmd.AddCommand(userCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(orgCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
}

func actor() engine.Actor {
	return engine.Actor{
		ID:   viper.GetString("actor-id"),
		Role: domain.Role(viper.GetString("role")),
	}
}

func assetCmd() *cobra.Command {
	asset := &cobra.Command{
		Use:   "asset",
		Short: "Manage assets",
		Long:  "Assets are the tracked items. Register them, hand them out, bring them back, and inspect their full history.",
	}
	asset.AddCommand(assetCreateCmd())
	asset.AddCommand(assetListCmd())
	asset.AddCommand(assetShowCmd())
	asset.AddCommand(assetUpdateCmd())
	asset.AddCommand(assetDeleteCmd())
	asset.AddCommand(assetAssignCmd())
	asset.AddCommand(assetConditionCmd())
	asset.AddCommand(assetTicketCmd())
	asset.AddCommand(assetTimelineCmd())
	asset.AddCommand(assetAvailableCmd())
	return asset
}

func assetCreateCmd() *cobra.Command {
	var opts engine.AssetCreateOptions
	var category, condition, status string
	var price float64
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register an asset",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Category = domain.AssetCategory(category)
			opts.Condition = domain.AssetCondition(condition)
			opts.Status = domain.AssetStatus(status)
			if cmd.Flags().Changed("price") {
				opts.PurchasePrice = &price
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				a, err := e.CreateAsset(ctx, opts, actor())
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
	cmd.Flags().StringVar(&opts.ID, "id", "", "asset id (optional, UUID if omitted)")
	cmd.Flags().StringVar(&opts.AssetTag, "tag", "", "asset tag")
	cmd.Flags().StringVar(&category, "category", "", "category (laptop, desktop, monitor, ...)")
	cmd.Flags().StringVar(&opts.Brand, "brand", "", "brand")
	cmd.Flags().StringVar(&opts.Model, "model", "", "model")
	cmd.Flags().StringVar(&opts.SerialNumber, "serial", "", "serial number")
	cmd.Flags().StringVar(&condition, "condition", "", "condition (defaults to good)")
	cmd.Flags().StringVar(&opts.PurchaseDate, "purchase-date", "", "purchase date (YYYY-MM-DD or RFC3339)")
	cmd.Flags().Float64Var(&price, "price", 0, "purchase price")
	cmd.Flags().StringVar(&opts.WarrantyExpiry, "warranty", "", "warranty expiry date")
	cmd.Flags().StringVar(&opts.Notes, "notes", "", "notes")
	cmd.Flags().StringVar(&status, "status", "", "initial status (defaults to available)")
	cmd.Flags().StringVar(&opts.LocationID, "location", "", "location id")
	_ = cmd.MarkFlagRequired("tag")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("brand")
	_ = cmd.MarkFlagRequired("model")
	return cmd
}

func assetListCmd() *cobra.Command {
	var f repo.AssetFilters
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List assets",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				assets, err := e.Repo.ListAssets(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(assets)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Tag", "Category", "Brand", "Model", "Status", "Condition"})
				for _, a := range assets {
					tw.AppendRow(table.Row{a.AssetTag, a.Category, a.Brand, a.Model, a.Status, a.Condition})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.Status, "status", "", "status filter")
	cmd.Flags().StringVar(&f.Category, "category", "", "category filter")
	cmd.Flags().StringVar(&f.LocationID, "location", "", "location filter")
	cmd.Flags().StringVar(&f.Search, "search", "", "search tag, brand, model or serial")
	cmd.Flags().IntVar(&f.Limit, "limit", 0, "max results")
	return cmd
}

func assetAvailableCmd() *cobra.Command {
	var f repo.AssetFilters
	cmd := &cobra.Command{
		Use:   "available",
		Short: "List assignable assets",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withQueries(cmd.Context(), func(ctx context.Context, q query.Queries) error {
				assets, err := q.FindAvailableAssets(ctx, f)
				if err != nil {
					return err
				}
				return printJSONOrTable(assets)
			})
		},
	}
	cmd.Flags().StringVar(&f.Category, "category", "", "category filter")
	cmd.Flags().StringVar(&f.Search, "search", "", "search filter")
	cmd.Flags().IntVar(&f.Limit, "limit", 0, "max results")
	return cmd
}

func assetShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				a, err := e.Repo.GetAsset(ctx, id)
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
	return cmd
}

func assetUpdateCmd() *cobra.Command {
	var tag, category, brand, model, serial, condition, purchaseDate, warranty, notes, status, location string
	var price float64
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			var patch engine.AssetPatch
			if cmd.Flags().Changed("tag") {
				patch.AssetTag = &tag
			}
			if cmd.Flags().Changed("category") {
				c := domain.AssetCategory(category)
				patch.Category = &c
			}
			if cmd.Flags().Changed("brand") {
				patch.Brand = &brand
			}
			if cmd.Flags().Changed("model") {
				patch.Model = &model
			}
			if cmd.Flags().Changed("serial") {
				patch.SerialNumber = &serial
			}
			if cmd.Flags().Changed("condition") {
				c := domain.AssetCondition(condition)
				patch.Condition = &c
			}
			if cmd.Flags().Changed("purchase-date") {
				patch.PurchaseDate = &purchaseDate
			}
			if cmd.Flags().Changed("price") {
				patch.PurchasePrice = &price
			}
			if cmd.Flags().Changed("warranty") {
				patch.WarrantyExpiry = &warranty
			}
			if cmd.Flags().Changed("notes") {
				patch.Notes = &notes
			}
			if cmd.Flags().Changed("status") {
				s := domain.AssetStatus(status)
				patch.Status = &s
			}
			if cmd.Flags().Changed("location") {
				patch.LocationID = &location
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				a, err := e.UpdateAsset(ctx, id, patch, actor())
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
	cmd.Flags().StringVar(&tag, "tag", "", "asset tag")
	cmd.Flags().StringVar(&category, "category", "", "category")
	cmd.Flags().StringVar(&brand, "brand", "", "brand")
	cmd.Flags().StringVar(&model, "model", "", "model")
	cmd.Flags().StringVar(&serial, "serial", "", "serial number (empty clears)")
	cmd.Flags().StringVar(&condition, "condition", "", "condition")
	cmd.Flags().StringVar(&purchaseDate, "purchase-date", "", "purchase date")
	cmd.Flags().Float64Var(&price, "price", 0, "purchase price")
	cmd.Flags().StringVar(&warranty, "warranty", "", "warranty expiry date")
	cmd.Flags().StringVar(&notes, "notes", "", "notes")
	cmd.Flags().StringVar(&status, "status", "", "status (available, under_maintenance, retired, lost)")
	cmd.Flags().StringVar(&location, "location", "", "location id (empty clears)")
	return cmd
}

func assetDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete asset (soft)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.DeleteAsset(ctx, id, actor())
			})
		},
	}
	return cmd
}

func assetAssignCmd() *cobra.Command {
	var opts engine.AssignOptions
	cmd := &cobra.Command{
		Use:   "assign <id>",
		Short: "Assign asset to employee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.AssetID = args[0]
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				as, err := e.Assign(ctx, opts, actor())
				if err != nil {
					return err
				}
				return printJSONOrTable(as)
			})
		},
	}
	cmd.Flags().StringVar(&opts.EmployeeID, "employee", "", "employee id")
	cmd.Flags().StringVar(&opts.LocationID, "location", "", "location id")
	cmd.Flags().StringVar(&opts.AssignedDate, "date", "", "assigned date (defaults to now)")
	cmd.Flags().StringVar(&opts.ExpectedReturnDate, "expected-return", "", "expected return date")
	cmd.Flags().StringVar(&opts.Notes, "notes", "", "notes")
	_ = cmd.MarkFlagRequired("employee")
	return cmd
}

func assetConditionCmd() *cobra.Command {
	var condition string
	cmd := &cobra.Command{
		Use:   "condition <id>",
		Short: "Change asset condition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				a, err := e.ChangeCondition(ctx, id, domain.AssetCondition(condition), actor())
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
	cmd.Flags().StringVar(&condition, "condition", "", "condition (very_bad, bad, fair, good, very_good, new)")
	_ = cmd.MarkFlagRequired("condition")
	return cmd
}

func assetTicketCmd() *cobra.Command {
	var ticket, note string
	cmd := &cobra.Command{
		Use:   "ticket <id>",
		Short: "Link support ticket to asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.LinkSupportTicket(ctx, id, ticket, note, actor())
			})
		},
	}
	cmd.Flags().StringVar(&ticket, "ticket", "", "ticket number")
	cmd.Flags().StringVar(&note, "note", "", "note")
	_ = cmd.MarkFlagRequired("ticket")
	return cmd
}

func assetTimelineCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "timeline <id>",
		Short: "Show asset timeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p := timeline.Projector{Repo: e.Repo}
				entries, err := p.Timeline(ctx, id, limit)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(entries)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"TS", "Type", "Status", "Title", "Description"})
				for _, entry := range entries {
					tw.AppendRow(table.Row{entry.TS, entry.Type, entry.Status, entry.Title, entry.Description})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "max entries (0 for all)")
	return cmd
}

func assignmentCmd() *cobra.Command {
	as := &cobra.Command{
		Use:   "assignment",
		Short: "Manage assignments",
		Long:  "Assignments record who holds which asset. Returning an asset closes its assignment and makes the asset available again.",
	}
	as.AddCommand(assignmentListCmd())
	as.AddCommand(assignmentShowCmd())
	as.AddCommand(assignmentReturnCmd())
	return as
}

func assignmentListCmd() *cobra.Command {
	var f repo.AssignmentFilters
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List assignments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withQueries(cmd.Context(), func(ctx context.Context, q query.Queries) error {
				items, err := q.Repo.ListAssignments(cmd.Context(), f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Asset", "Employee", "Assigned", "Expected", "Overdue"})
				for _, as := range items {
					expected := ""
					if as.ExpectedReturnDate != nil {
						expected = *as.ExpectedReturnDate
					}
					tw.AppendRow(table.Row{as.ID, as.AssetID, as.EmployeeID, as.AssignedDate, expected, q.IsOverdue(as)})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.AssetID, "asset", "", "asset filter")
	cmd.Flags().StringVar(&f.EmployeeID, "employee", "", "employee filter")
	cmd.Flags().BoolVar(&f.ActiveOnly, "active", false, "only active assignments")
	cmd.Flags().IntVar(&f.Limit, "limit", 0, "max results")
	return cmd
}

func assignmentShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show assignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				as, err := e.Repo.GetAssignment(ctx, id)
				if err != nil {
					return err
				}
				return printJSONOrTable(as)
			})
		},
	}
	return cmd
}

func assignmentReturnCmd() *cobra.Command {
	var opts engine.ReturnOptions
	cmd := &cobra.Command{
		Use:   "return <id>",
		Short: "Return assigned asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.AssignmentID = args[0]
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				as, err := e.Return(ctx, opts, actor())
				if err != nil {
					return err
				}
				return printJSONOrTable(as)
			})
		},
	}
	cmd.Flags().StringVar(&opts.ActualReturnDate, "date", "", "return date (defaults to now)")
	cmd.Flags().StringVar(&opts.ReturnNotes, "notes", "", "return notes")
	return cmd
}

func employeeCmd() *cobra.Command {
	emp := &cobra.Command{
		Use:   "employee",
		Short: "Manage employees",
	}
	emp.AddCommand(employeeCreateCmd())
	emp.AddCommand(employeeListCmd())
	emp.AddCommand(employeeShowCmd())
	emp.AddCommand(employeeUpdateCmd())
	emp.AddCommand(employeeDeactivateCmd())
	return emp
}

func employeeCreateCmd() *cobra.Command {
	var opts engine.EmployeeCreateOptions
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register employee",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				emp, err := e.CreateEmployee(ctx, opts, actor())
				if err != nil {
					return err
				}
				return printJSONOrTable(emp)
			})
		},
	}
	cmd.Flags().StringVar(&opts.EmployeeID, "employee-id", "", "employee number")
	cmd.Flags().StringVar(&opts.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&opts.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&opts.Email, "email", "", "email")
	cmd.Flags().StringVar(&opts.PhoneNumber, "phone", "", "phone number")
	cmd.Flags().StringVar(&opts.Department, "department", "", "department")
	cmd.Flags().StringVar(&opts.JobTitle, "job-title", "", "job title")
	cmd.Flags().StringVar(&opts.WorkLocationID, "location", "", "work location id")
	cmd.Flags().StringVar(&opts.StartDate, "start-date", "", "start date")
	_ = cmd.MarkFlagRequired("employee-id")
	_ = cmd.MarkFlagRequired("first-name")
	_ = cmd.MarkFlagRequired("last-name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func employeeListCmd() *cobra.Command {
	var f repo.EmployeeFilters
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List employees",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Repo.ListEmployees(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Employee", "Name", "Department", "Active"})
				for _, emp := range items {
					tw.AppendRow(table.Row{emp.ID, emp.EmployeeID, emp.FullName(), emp.Department, emp.Active})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.Department, "department", "", "department filter")
	cmd.Flags().BoolVar(&f.ActiveOnly, "active", false, "only active employees")
	cmd.Flags().StringVar(&f.Search, "search", "", "search name or email")
	cmd.Flags().IntVar(&f.Limit, "limit", 0, "max results")
	return cmd
}

func employeeShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show employee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				emp, err := e.Repo.GetEmployee(ctx, id)
				if err != nil {
					return err
				}
				return printJSONOrTable(emp)
			})
		},
	}
	return cmd
}

func employeeUpdateCmd() *cobra.Command {
	var firstName, lastName, email, phone, department, jobTitle, location string
	var active bool
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update employee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			var patch engine.EmployeePatch
			if cmd.Flags().Changed("first-name") {
				patch.FirstName = &firstName
			}
			if cmd.Flags().Changed("last-name") {
				patch.LastName = &lastName
			}
			if cmd.Flags().Changed("email") {
				patch.Email = &email
			}
			if cmd.Flags().Changed("phone") {
				patch.PhoneNumber = &phone
			}
			if cmd.Flags().Changed("department") {
				patch.Department = &department
			}
			if cmd.Flags().Changed("job-title") {
				patch.JobTitle = &jobTitle
			}
			if cmd.Flags().Changed("location") {
				patch.WorkLocationID = &location
			}
			if cmd.Flags().Changed("active") {
				patch.Active = &active
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				emp, err := e.UpdateEmployee(ctx, id, patch, actor())
				if err != nil {
					return err
				}
				return printJSONOrTable(emp)
			})
		},
	}
	cmd.Flags().StringVar(&firstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&email, "email", "", "email")
	cmd.Flags().StringVar(&phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&department, "department", "", "department")
	cmd.Flags().StringVar(&jobTitle, "job-title", "", "job title")
	cmd.Flags().StringVar(&location, "location", "", "work location id (empty clears)")
	cmd.Flags().BoolVar(&active, "active", true, "active flag")
	return cmd
}

func employeeDeactivateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deactivate <id>",
		Short: "Deactivate employee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				emp, err := e.DeactivateEmployee(ctx, id, actor())
				if err != nil {
					return err
				}
				return printJSONOrTable(emp)
			})
		},
	}
	return cmd
}

func locationCmd() *cobra.Command {
	loc := &cobra.Command{
		Use:   "location",
		Short: "Manage locations",
	}
	loc.AddCommand(locationCreateCmd())
	loc.AddCommand(locationListCmd())
	loc.AddCommand(locationShowCmd())
	loc.AddCommand(locationUpdateCmd())
	loc.AddCommand(locationDeactivateCmd())
	return loc
}

func locationCreateCmd() *cobra.Command {
	var opts engine.LocationCreateOptions
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register location",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				l, err := e.CreateLocation(ctx, opts, actor())
				if err != nil {
					return err
				}
				return printJSONOrTable(l)
			})
		},
	}
	cmd.Flags().StringVar(&opts.Building, "building", "", "building")
	cmd.Flags().IntVar(&opts.Floor, "floor", 0, "floor")
	cmd.Flags().StringVar(&opts.Room, "room", "", "room")
	cmd.Flags().StringVar(&opts.Description, "description", "", "description")
	_ = cmd.MarkFlagRequired("building")
	return cmd
}

func locationListCmd() *cobra.Command {
	var activeOnly bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List locations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Repo.ListLocations(ctx, activeOnly)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
	cmd.Flags().BoolVar(&activeOnly, "active", false, "only active locations")
	return cmd
}

func locationShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				l, err := e.Repo.GetLocation(ctx, id)
				if err != nil {
					return err
				}
				return printJSONOrTable(l)
			})
		},
	}
	return cmd
}

func locationUpdateCmd() *cobra.Command {
	var building, room, description string
	var floor int
	var active bool
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			var patch engine.LocationPatch
			if cmd.Flags().Changed("building") {
				patch.Building = &building
			}
			if cmd.Flags().Changed("floor") {
				patch.Floor = &floor
			}
			if cmd.Flags().Changed("room") {
				patch.Room = &room
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &description
			}
			if cmd.Flags().Changed("active") {
				patch.Active = &active
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				l, err := e.UpdateLocation(ctx, id, patch, actor())
				if err != nil {
					return err
				}
				return printJSONOrTable(l)
			})
		},
	}
	cmd.Flags().StringVar(&building, "building", "", "building")
	cmd.Flags().IntVar(&floor, "floor", 0, "floor")
	cmd.Flags().StringVar(&room, "room", "", "room")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().BoolVar(&active, "active", true, "active flag")
	return cmd
}

func locationDeactivateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deactivate <id>",
		Short: "Deactivate location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				l, err := e.DeactivateLocation(ctx, id, actor())
				if err != nil {
					return err
				}
				return printJSONOrTable(l)
			})
		},
	}
	return cmd
}

func userCmd() *cobra.Command {
	user := &cobra.Command{
		Use:   "user",
		Short: "Manage console users",
	}
	user.AddCommand(userCreateCmd())
	user.AddCommand(userListCmd())
	user.AddCommand(userShowCmd())
	user.AddCommand(userUpdateCmd())
	user.AddCommand(userDeactivateCmd())
	user.AddCommand(userAPIKeyCmd())
	return user
}

func userCreateCmd() *cobra.Command {
	var opts engine.UserCreateOptions
	var role string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create user",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Role = domain.Role(role)
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				u, err := e.CreateUser(ctx, opts, actor())
				if err != nil {
					return err
				}
				return printJSONOrTable(u)
			})
		},
	}
	cmd.Flags().StringVar(&opts.Email, "email", "", "email")
	cmd.Flags().StringVar(&opts.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&opts.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&role, "user-role", "viewer", "role (viewer, it_officer, admin)")
	cmd.Flags().StringVar(&opts.Department, "department", "", "department")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func userListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Repo.ListUsers(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
	return cmd
}

func userShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				u, err := e.Repo.GetUser(ctx, id)
				if err != nil {
					return err
				}
				return printJSONOrTable(u)
			})
		},
	}
	return cmd
}

func userUpdateCmd() *cobra.Command {
	var email, firstName, lastName, role, department string
	var active bool
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			var patch engine.UserPatch
			if cmd.Flags().Changed("email") {
				patch.Email = &email
			}
			if cmd.Flags().Changed("first-name") {
				patch.FirstName = &firstName
			}
			if cmd.Flags().Changed("last-name") {
				patch.LastName = &lastName
			}
			if cmd.Flags().Changed("user-role") {
				r := domain.Role(role)
				patch.Role = &r
			}
			if cmd.Flags().Changed("department") {
				patch.Department = &department
			}
			if cmd.Flags().Changed("active") {
				patch.Active = &active
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				u, err := e.UpdateUser(ctx, id, patch, actor())
				if err != nil {
					return err
				}
				return printJSONOrTable(u)
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email")
	cmd.Flags().StringVar(&firstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&role, "user-role", "", "role")
	cmd.Flags().StringVar(&department, "department", "", "department")
	cmd.Flags().BoolVar(&active, "active", true, "active flag")
	return cmd
}

func userDeactivateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deactivate <id>",
		Short: "Deactivate user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				u, err := e.DeactivateUser(ctx, id, actor())
				if err != nil {
					return err
				}
				return printJSONOrTable(u)
			})
		},
	}
	return cmd
}

func userAPIKeyCmd() *cobra.Command {
	key := &cobra.Command{
		Use:   "apikey",
		Short: "Manage API keys",
	}
	key.AddCommand(userAPIKeyIssueCmd())
	key.AddCommand(userAPIKeyListCmd())
	key.AddCommand(userAPIKeyRevokeCmd())
	return key
}

func userAPIKeyIssueCmd() *cobra.Command {
	var userID, name string
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue API key for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				if _, err := r.GetUser(ctx, userID); err != nil {
					return err
				}
				// The plaintext key is printed exactly once; only its hash is stored.
				plaintext := uuid.New().String() + uuid.New().String()
				key := domain.APIKey{
					ID:        uuid.New().String(),
					UserID:    userID,
					Name:      name,
					KeyHash:   repo.HashAPIKey(plaintext),
					CreatedAt: time.Now().UTC().Format(time.RFC3339),
				}
				if err := r.InsertAPIKey(ctx, key); err != nil {
					return err
				}
				return printJSONOrTable(map[string]any{
					"id":      key.ID,
					"user_id": key.UserID,
					"name":    key.Name,
					"key":     plaintext,
				})
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id")
	cmd.Flags().StringVar(&name, "name", "", "key name")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func userAPIKeyListCmd() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListAPIKeys(ctx, userID)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user filter")
	return cmd
}

func userAPIKeyRevokeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revoke <id>",
		Short: "Revoke API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				return r.DeleteAPIKey(ctx, id)
			})
		},
	}
	return cmd
}

func reportCmd() *cobra.Command {
	rep := &cobra.Command{
		Use:   "report",
		Short: "Reports",
		Long:  "Derived views over the store: dashboard counts, warranty windows, overdue assignments.",
	}
	rep.AddCommand(reportDashboardCmd())
	rep.AddCommand(reportWarrantyCmd())
	rep.AddCommand(reportOverdueCmd())
	return rep
}

func reportDashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Dashboard summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withQueries(cmd.Context(), func(ctx context.Context, q query.Queries) error {
				summary, err := q.DashboardSummary(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(summary)
				}
				fmt.Printf("Total assets: %d\n", summary.TotalAssets)
				fmt.Println("By status:")
				for status, c := range summary.ByStatus {
					fmt.Printf("  %s: %d\n", status, c)
				}
				fmt.Println("By category:")
				for category, c := range summary.ByCategory {
					fmt.Printf("  %s: %d\n", category, c)
				}
				fmt.Printf("Warranty expiring soon: %d\n", summary.WarrantyExpiring)
				fmt.Printf("Overdue assignments: %d\n", summary.OverdueAssignments)
				return nil
			})
		},
	}
	return cmd
}

func reportWarrantyCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "warranty",
		Short: "Assets with expiring warranty",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withQueries(cmd.Context(), func(ctx context.Context, q query.Queries) error {
				items, err := q.WarrantyExpiring(ctx, days)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "window in days (defaults to org config)")
	return cmd
}

func reportOverdueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "overdue",
		Short: "Overdue assignments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withQueries(cmd.Context(), func(ctx context.Context, q query.Queries) error {
				items, err := q.OverdueAssignments(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
	return cmd
}

func orgCmd() *cobra.Command {
	org := &cobra.Command{
		Use:   "org",
		Short: "Org configuration",
		Long:  "Org config is the rulebook stored in the DB: org identity, report defaults, and webhook endpoints. Import from assetline.yml if desired.",
	}
	org.AddCommand(orgConfigShowCmd())
	org.AddCommand(orgConfigImportCmd())
	org.AddCommand(orgConfigInitCmd())
	return org
}

func orgConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show org config stored in DB",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return printJSONOrTable(e.Config)
			})
		},
	}
	return cmd
}

func orgConfigImportCmd() *cobra.Command {
	var filePath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import org config from YAML into the DB",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(filePath)
			if err != nil {
				return err
			}
			cfg, err := config.FromYAML(data)
			if err != nil {
				return err
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				now := time.Now().UTC().Format(time.RFC3339)
				if err := r.UpsertConfig(ctx, cfg.Org.ID, string(data), now); err != nil {
					return err
				}
				return printJSONOrTable(cfg)
			})
		},
	}
	cmd.Flags().StringVar(&filePath, "file", "", "path to YAML config")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func orgConfigInitCmd() *cobra.Command {
	var orgID string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default assetline.yml into the workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			path := config.Path(workspace)
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault(orgID)), 0o644); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&orgID, "org", "default-org", "org id")
	return cmd
}

func logCmd() *cobra.Command {
	log := &cobra.Command{
		Use:   "log",
		Short: "Event log",
		Long:  "The diary of everything that happened to every asset.",
	}
	log.AddCommand(logTailCmd())
	return log
}

func logTailCmd() *cobra.Command {
	var f repo.EventFilters
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				events, err := e.Repo.LatestEvents(ctx, f)
				if err != nil {
					return err
				}
				return printJSONOrTable(events)
			})
		},
	}
	cmd.Flags().IntVar(&f.Limit, "n", 20, "number of events")
	cmd.Flags().StringVar(&f.AssetID, "asset", "", "asset filter")
	cmd.Flags().StringVar(&f.Type, "type", "", "event type filter")
	cmd.Flags().StringVar(&f.ActorID, "actor", "", "actor filter")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	var allowLegacyActorHeader bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			if _, err := db.EnsureWorkspace(workspace); err != nil {
				return err
			}
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			r := repo.Repo{DB: conn}
			cfg, err := app.ResolveOrgAndConfig(cmd.Context(), workspace, r)
			if err != nil {
				return err
			}
			if err := app.EnsureAdminUser(cmd.Context(), r); err != nil {
				return err
			}
			e := engine.New(conn, cfg)
			authCfg := server.AuthConfig{
				JWTSecret:              os.Getenv("ASSETLINE_JWT_SECRET"),
				AllowLegacyActorHeader: allowLegacyActorHeader,
			}
			if authCfg.JWTSecret == "" {
				return fmt.Errorf("ASSETLINE_JWT_SECRET is required for bearer auth")
			}
			handler, err := server.New(server.Config{
				Engine:    e,
				Queries:   query.New(conn, cfg.Defaults.WarrantyAlertDays),
				Projector: timeline.Projector{Repo: r},
				BasePath:  basePath,
				Auth:      authCfg,
			})
			if err != nil {
				return err
			}
			server.StartWebhookDispatcher(cmd.Context(), e)
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Assetline API on http://%s%s (OpenAPI at /openapi.json, Swagger UI at /docs)\n", addr, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v1", "API base path")
	cmd.Flags().BoolVar(&allowLegacyActorHeader, "allow-legacy-actor-header", false, "accept X-Actor-Id/X-Actor-Role without auth (dev only)")
	return cmd
}

// --- helpers ---

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	r := repo.Repo{DB: conn}
	cfg, err := app.ResolveOrgAndConfig(ctx, workspace, r)
	if err != nil {
		return err
	}
	e := engine.New(conn, cfg)
	return fn(ctx, e)
}

func withQueries(ctx context.Context, fn func(context.Context, query.Queries) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	r := repo.Repo{DB: conn}
	cfg, err := app.ResolveOrgAndConfig(ctx, workspace, r)
	if err != nil {
		return err
	}
	return fn(ctx, query.New(conn, cfg.Defaults.WarrantyAlertDays))
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	return fn(ctx, repo.Repo{DB: conn})
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

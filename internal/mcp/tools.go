package mcp

import "github.com/mark3labs/mcp-go/mcp"

var spinnerCreateToolDef = mcp.NewTool("spinner_create",
	mcp.WithDescription("Create a spinner (a decision wheel) with a title and a single emoji icon."),
	mcp.WithString("title", mcp.Required(), mcp.Description("Spinner title, e.g. \"Lunch\"")),
	mcp.WithString("icon", mcp.Required(), mcp.Description("One emoji. Only the first emoji is kept.")),
)

var spinnerUpdateToolDef = mcp.NewTool("spinner_update",
	mcp.WithDescription("Change a spinner's title and icon. Options and color are kept."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Spinner ID")),
	mcp.WithString("title", mcp.Required(), mcp.Description("New title")),
	mcp.WithString("icon", mcp.Required(), mcp.Description("New emoji icon")),
	mcp.WithIdempotentHintAnnotation(true),
)

var spinnerDeleteToolDef = mcp.NewTool("spinner_delete",
	mcp.WithDescription("Delete a spinner and all of its options."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Spinner ID")),
	mcp.WithDestructiveHintAnnotation(true),
)

var spinnerListToolDef = mcp.NewTool("spinner_list",
	mcp.WithDescription("List all spinners in creation order with their option counts."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var spinnerLayoutToolDef = mcp.NewTool("spinner_layout",
	mcp.WithDescription("Return the wheel geometry for a spinner: radius, marker size and one position per option."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Spinner ID")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var spinnerSpinToolDef = mcp.NewTool("spinner_spin",
	mcp.WithDescription("Spin a spinner's wheel. Every option is equally likely; the selection is made when the spin starts. "+
		"Returns SPIN_IN_PROGRESS while an earlier spin is still turning."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Spinner ID")),
	mcp.WithBoolean("wait", mcp.Description("Block until the wheel settles (about ten seconds) before returning")),
)

var spinnerExportToolDef = mcp.NewTool("spinner_export",
	mcp.WithDescription("Export spinners and their options to a YAML file."),
	mcp.WithString("path", mcp.Description("Destination .yaml file. Defaults to ~/.spinit/exports/<name>-<timestamp>.yaml")),
	mcp.WithString("spinner_id", mcp.Description("Export only this spinner")),
)

var spinnerImportToolDef = mcp.NewTool("spinner_import",
	mcp.WithDescription("Import spinners from a YAML export file, merging by spinner ID."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Source .yaml file")),
	mcp.WithString("mode", mcp.Description("What to do when a spinner ID already exists"), mcp.Enum("error", "replace", "skip")),
)

var optionAddToolDef = mcp.NewTool("option_add",
	mcp.WithDescription("Append an option to a spinner. A spinner holds at most 15 options."),
	mcp.WithString("spinner_id", mcp.Required(), mcp.Description("Spinner ID")),
	mcp.WithString("name", mcp.Required(), mcp.Description("Option text shown on the wheel")),
)

var optionUpdateToolDef = mcp.NewTool("option_update",
	mcp.WithDescription("Rename an option. Its position on the wheel is kept."),
	mcp.WithString("spinner_id", mcp.Required(), mcp.Description("Spinner ID")),
	mcp.WithString("option_id", mcp.Required(), mcp.Description("Option ID")),
	mcp.WithString("name", mcp.Required(), mcp.Description("New option text")),
	mcp.WithIdempotentHintAnnotation(true),
)

var optionDeleteToolDef = mcp.NewTool("option_delete",
	mcp.WithDescription("Remove an option from a spinner."),
	mcp.WithString("spinner_id", mcp.Required(), mcp.Description("Spinner ID")),
	mcp.WithString("option_id", mcp.Required(), mcp.Description("Option ID")),
	mcp.WithDestructiveHintAnnotation(true),
)

var optionListToolDef = mcp.NewTool("option_list",
	mcp.WithDescription("List a spinner's options in wheel order."),
	mcp.WithString("spinner_id", mcp.Required(), mcp.Description("Spinner ID")),
	mcp.WithReadOnlyHintAnnotation(true),
)

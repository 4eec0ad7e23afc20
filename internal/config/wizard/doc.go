// Package wizard provides an interactive configuration wizard for cellflow.
//
// The wizard walks through the ERPNext connection, the attached devices,
// the manufacture policy and the item routes using charmbracelet/huh forms,
// and returns a WizardResult. Use BuildConfig to convert results to a
// Config struct, and WriteConfig to generate the YAML output file.
package wizard

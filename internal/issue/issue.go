// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"maps"
	"slices"

	"github.com/charmbracelet/glamour"
)

type Id int

const (
	ConfigNotFoundId Id = iota + 1
	ConfigLoadFailedId
	ModsDirNotFoundId
	ModContentInvalidId
	LayerOperationFailedId
	ArchiveFailedId
	MergeInputInvalidId
	UnresolvedConflictsId
	PermissionDeniedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // documentation about the issue type
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also:\n"
		for _, link := range i.docLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
		for _, link := range i.extLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	configNotFoundIssue = &Issue{
		id: ConfigNotFoundId,
		mdMsg: `
# No configuration file found!

modpak needs a TOML file describing the modpack. A commented template
has been written for you when the default file was missing.

## Things you can try:
- Create a configuration file:
~~~
$ modpak config init modpak.toml
~~~

- Or point modpak at an existing one:
~~~
$ modpak build path/to/modpak.toml
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The configuration file could not be read or is incomplete.

## Things you can try:
- Check the TOML syntax of the file
- Make sure 'name', 'staging_dir' and 'mods_dir' are set
- Print the effective configuration, environment overrides included:
~~~
$ modpak config show
~~~`,
	}

	modsDirNotFoundIssue = &Issue{
		id: ModsDirNotFoundId,
		mdMsg: `
# Mods directory not found!

The directory configured as 'mods_dir' does not exist.

## Things you can try:
- Create it and put one folder, .pak or .zip archive per mod inside
- Fix the 'mods_dir' path; relative paths start at the configuration file`,
	}

	modContentInvalidIssue = &Issue{
		id: ModContentInvalidId,
		mdMsg: `
# A mod contains a file that cannot be read!

JSON files are normalized while a mod is copied into the workspace, and a
malformed one stops the build.

## Things you can try:
- Fix or remove the file named in the error
- Validate JSON files with any JSON linter before packing the mod`,
	}

	layerOperationFailedIssue = &Issue{
		id: LayerOperationFailedId,
		mdMsg: `
# Workspace operation failed!

The layered workspace in the staging directory could not be updated. The
build stopped and the workspace was left as it was for inspection.

## Things you can try:
- Make sure the staging directory is writable and not used by another process
- Inspect the workspace history:
~~~
$ git -C <staging_dir> log --all --oneline
~~~
- Run the build again; the staging directory is recreated on every build`,
	}

	archiveFailedIssue = &Issue{
		id: ArchiveFailedId,
		mdMsg: `
# Archive operation failed!

An archive could not be read or written.

## Things you can try:
- Check that the file is a .pak written by modpak or a valid .zip
- Make sure the output directory is writable
- List the archive content:
~~~
$ modpak pak list <archive>
~~~`,
	}

	mergeInputInvalidIssue = &Issue{
		id: MergeInputInvalidId,
		mdMsg: `
# Failed to merge files!

One of the three inputs could not be parsed, or its format is not supported.

## Supported formats:
- struct configuration files (.cfg)
- INI files (.ini)
- JSON files (.json)

## Things you can try:
- Check the line reported in the error
- Make sure all three files have the same format`,
	}

	unresolvedConflictsIssue = &Issue{
		id: UnresolvedConflictsId,
		mdMsg: `
# Some files kept their earlier version!

These files were changed by several mods and could not be merged. The
version from the mods integrated before won.

## Things you can try:
- Change mod priorities in the '[priorities]' table
- Merge the files by hand and ship them in a separate, late mod`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

You don't have permission to perform this operation.

## Common causes:
- The staging directory or the output archive is in a protected directory
- A mod archive is not readable

## Things you can try:
- Check file/directory permissions
- Run modpak from a directory you own`,
	}

	issues = map[Id]*Issue{
		configNotFoundIssue.Id():       configNotFoundIssue,
		configLoadFailedIssue.Id():     configLoadFailedIssue,
		modsDirNotFoundIssue.Id():      modsDirNotFoundIssue,
		modContentInvalidIssue.Id():    modContentInvalidIssue,
		layerOperationFailedIssue.Id(): layerOperationFailedIssue,
		archiveFailedIssue.Id():        archiveFailedIssue,
		mergeInputInvalidIssue.Id():    mergeInputInvalidIssue,
		unresolvedConflictsIssue.Id():  unresolvedConflictsIssue,
		permissionDeniedIssue.Id():     permissionDeniedIssue,
	}
)

// Values returns every issue, ordered by Id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int {
		return cmp.Compare(a.id, b.id)
	})
}

func Get(id Id) *Issue {
	return issues[id]
}

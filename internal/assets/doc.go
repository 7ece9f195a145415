// Package assets provides the page styles and the page template used to
// assemble converted pages.
//
// Every asset has a Kind and a bare name. Builtin serves the copies
// embedded at compile time (styles default, auto and minimal, template
// page). Open layers a user directory over them:
//
//	{dir}/
//	├── styles/{name}.css
//	└── templates/page.html   # defines "page" and "fragment"
//
// A file in the directory replaces the built-in asset with the same name;
// anything it lacks comes from Builtin. Names cannot carry separators or
// dots, and Dir refuses files that resolve outside its root.
package assets

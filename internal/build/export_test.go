package build

var ModuleVersion = moduleVersion

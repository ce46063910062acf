// Package prefs is a small, generic preference-persistence layer: a set of
// typed values (Bool, String, Int, Float, Generic) that can be registered
// with a Disk and saved/loaded as a sorted "key :: value" text file.
//
// It carries no domain knowledge of its own. The settingsdisk package builds the
// firmware's numeric $n=v store on top of it by registering one Float per
// SettingID.
package prefs

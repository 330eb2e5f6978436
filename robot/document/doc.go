// Package document reads robot input documents and writes result documents.
//
// Input Format:
//
// Documents are JSON, or YAML when the file ends in .yaml or .yml:
//
//	{
//	  "map": [["S", "S", "S"], ["S", "C", null]],
//	  "start": {"X": 0, "Y": 0, "facing": "E"},
//	  "commands": ["A", "C", "TR", "B"],
//	  "battery": 80
//	}
//
// "S" is a floor cell, "C" a column and null a cell outside the room. Rows
// may have different lengths.
//
// Validation:
//
// Decode and Load reject a document before any engine is built when a field
// is missing, the battery is negative, the map holds an unknown marker, the
// facing or a command token is unknown, or the start is outside the room or
// not on a floor cell. Rejections are *InvalidInputError values.
//
// Output Format:
//
//	{
//	  "visited": [{"X": 0, "Y": 0}, {"X": 1, "Y": 0}],
//	  "cleaned": [{"X": 1, "Y": 0}],
//	  "final": {"X": 1, "Y": 0, "facing": "S"},
//	  "battery": 70
//	}
package document

// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

/*
Package mpq reads MPQ (Mo'PaQ) archives, the asset containers shipped with
World of Warcraft clients up to Wrath of the Lich King (format versions 0
and 1).

# Reading an archive

	archive, err := mpq.Open("Data/common.MPQ")
	if err != nil {
		log.Fatal(err)
	}

	data, ok, err := archive.ReadFile("DBFilesClient\\Map.dbc")
	if err != nil {
		log.Fatal(err)
	}
	if !ok {
		log.Fatal("Map.dbc not found")
	}

An Archive keeps no file handle open between calls; each read opens the
file and closes it again.

# Archive chains

A client installation overrides base content with expansion and patch
archives. [Chain] models that order: every archive is placed in the bucket
of the first pattern of [DefaultPriorities] found in its path, and lookups
return the copy from the highest-priority bucket.

	chain, err := mpq.LoadArchives(ctx, "/games/wow/Data")
	if err != nil {
		log.Fatal(err)
	}
	data, ok, err := chain.ReadFile("DBFilesClient\\Map.dbc")

# Path Conventions

MPQ archives use backslash (\) as the path separator. Name hashing treats
forward slashes as backslashes and ignores case, so both spellings work.

# Limitations

  - No archive writing
  - No decryption of encrypted files ([ErrEncrypted])
  - Only stored, zlib and bzip2 compression ([ErrUnsupportedCompression])
  - No support for MPQ format V3/V4 (Cataclysm+) or user data shunts
*/
package mpq

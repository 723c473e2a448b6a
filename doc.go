/*
Package gxt reads and writes GXT text tables, the localized string
stores of a family of games, in four binary variants and a line-oriented
textual source format.

Data Structure Documentation

All integers are little-endian. Blocks start with a 4-byte ASCII tag
followed by a u32 payload length.

    Block layout:
    +----------------+------------------+-------------------+
    | tag (4 bytes)  | length (4 bytes) | payload (length)  |
    +----------------+------------------+-------------------+

Variants

    +---------+----------------+-----------+-----------+-----------+-----------------------+
    | variant | header         | directory | key kind  | key entry | values                |
    +---------+----------------+-----------+-----------+-----------+-----------------------+
    | A       | none           | no        | named     | 12 bytes  | UTF-16LE              |
    | B       | none           | TABL      | named     | 12 bytes  | UTF-16LE              |
    | C       | 04 00 08 00    | TABL      | hashed    | 8 bytes   | 8-bit, UTF-8 default  |
    | D       | 04 00 10 00    | TABL      | hashed    | 8 bytes   | UTF-16LE              |
    +---------+----------------+-----------+-----------+-----------+-----------------------+

Stream

A stream without a directory holds a single implicit MAIN table:

    +------+------+
    | TKEY | TDAT |
    +------+------+

Other streams start with an optional header and a TABL directory,
followed by one sub-table per directory record. MAIN is always first.
Every other sub-table is preceded by its 8-byte name, and its directory
offset points at that name.

    +----------+------+------------+------------+-------------+------------+------------+-----+
    | header   | TABL | MAIN: TKEY | MAIN: TDAT | name (8 b.) | TBL2: TKEY | TBL2: TDAT | ... |
    +----------+------+------------+------------+-------------+------------+------------+-----+

    Directory record:
    +----------------------------+-------------------+
    | name (8 bytes, null-pad)   | offset (4 bytes)  |
    +----------------------------+-------------------+

Keys

    Named key record (12 bytes):
    +-------------------+----------------------------+
    | offset (4 bytes)  | name (8 bytes, null-pad)   |
    +-------------------+----------------------------+

    Hashed key record (8 bytes):
    +-------------------+-------------------+
    | offset (4 bytes)  | hash (4 bytes)    |
    +-------------------+-------------------+

Offsets are relative to the start of the TDAT payload. Each value runs to
the next null code unit (2 bytes for UTF-16 variants, 1 byte otherwise),
or to the end of the payload.

Text

    ; comment
    [MAIN]
    GM_OVR=Game Over
    8B5C1A2F=Hello

Hashed-key variants read keys of exactly 8 hexadecimal digits as literal
hashes and hash every other key with the variant hasher.
*/
package gxt

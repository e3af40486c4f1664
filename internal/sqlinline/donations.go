package sqlinline

// QInsertDonation locks the owner, enforces the free-plan donation limit
// ($8, 0 disables), bumps donation_count and inserts the listing. A row with
// a null id means the limit was reached; no row means the owner is missing.
const QInsertDonation = `--sql c0fcb76e-b542-4598-9c99-17db406df366
with
owner as (
    select id, name, plan, donation_count
    from users
    where id = $1::uuid
    for update
),
allowed as (
    select id, name
    from owner
    where $8::int <= 0
       or plan <> 'free'
       or donation_count < $8::int
),
bumped as (
    update users u
    set donation_count = u.donation_count + 1,
        updated_at = now()
    from allowed
    where u.id = allowed.id
    returning u.id
),
ins as (
    insert into donations (
        id,
        title,
        description,
        contact,
        image_url,
        image_hint,
        owner_id,
        owner_name,
        status,
        is_featured,
        created_at
    )
    select
        gen_random_uuid(),
        $2::text,
        $3::text,
        $4::text,
        $5::text,
        $6::text,
        a.id,
        a.name,
        $7::text,
        false,
        now()
    from allowed a
    returning id, owner_name, created_at
)
select ins.id::text, ins.owner_name, ins.created_at
from owner
left join ins on true;
`

const QSelectDonationByID = `--sql 29d1cf13-a9e9-45fa-bf76-9fe4d4868eba
select id, title, description, contact, image_url, image_hint, owner_id, owner_name, status, is_featured, created_at
from donations
where id = $1::uuid
limit 1;
`

const QListDonations = `--sql adc14343-7531-4df0-8ba0-647dc02d2e30
select id, title, description, contact, image_url, image_hint, owner_id, owner_name, status, is_featured, created_at
from donations
where ($1::text = ''
       or position(lower($1::text) in lower(title)) > 0
       or position(lower($1::text) in lower(description)) > 0)
  and (not $2::bool or is_featured)
order by created_at desc, id desc
limit $3::int;
`

const QListDonationsByOwner = `--sql 9aca09c5-47c4-4eec-916c-3be353498644
select id, title, description, contact, image_url, image_hint, owner_id, owner_name, status, is_featured, created_at
from donations
where owner_id = $1::uuid
order by created_at desc, id desc;
`

const QUpdateDonationStatus = `--sql 8ca1ea73-8346-447c-b25f-5df150f988e1
update donations
set status = $2::text
where id = $1::uuid
returning id, title, description, contact, image_url, image_hint, owner_id, owner_name, status, is_featured, created_at;
`

const QSetDonationFeatured = `--sql 156a4bf3-622b-4ef0-a059-5800e4a82c9f
update donations
set is_featured = $2::bool
where id = $1::uuid
returning id, title, description, contact, image_url, image_hint, owner_id, owner_name, status, is_featured, created_at;
`

const QDeleteDonation = `--sql bbc58eb6-1d96-44b2-a4c8-a784b53473b5
delete from donations
where id = $1::uuid
returning id;
`
